package k8s

import (
	"context"
	"errors"
	"fmt"
	"sort"

	v1 "k8s.io/api/core/v1"
)

// ErrNoPod - no running pod matched the selector
var ErrNoPod = errors.New("no running pod found")

// PodLocator - finds the pod hosting etcd
type PodLocator struct {
	Implementer Implementer
	Namespace   string
	Selector    string
}

// Locate - returns the first running pod (by name) matching the selector
func (l *PodLocator) Locate(ctx context.Context) (*v1.Pod, error) {
	pods, err := l.Implementer.Pods(ctx, l.Namespace, l.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods in %s (%s): %w", l.Namespace, l.Selector, err)
	}

	running := []v1.Pod{}
	for _, p := range pods.Items {
		if p.Status.Phase == v1.PodRunning && p.DeletionTimestamp == nil {
			running = append(running, p)
		}
	}

	if len(running) == 0 {
		return nil, fmt.Errorf("%w in namespace %s matching %s", ErrNoPod, l.Namespace, l.Selector)
	}

	sort.Slice(running, func(i, j int) bool {
		return running[i].Name < running[j].Name
	})

	return &running[0], nil
}
