package sqsh

import (
	"fmt"
	"path"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// BatchDecoder decodes many inode references concurrently over a shared
// worker pool. Decodes are independent pure reads of the mount-time tables,
// so they parallelize without coordination.
type BatchDecoder struct {
	a    *Archive
	pool *ants.PoolWithFunc
}

type decodeTask struct {
	wg  *sync.WaitGroup
	a   *Archive
	ref Ref
	ino *Inode
	err error
}

func NewBatchDecoder(a *Archive, workers int) (*BatchDecoder, error) {
	bd := &BatchDecoder{a: a}
	pool, err := ants.NewPoolWithFunc(workers, func(v any) {
		t := v.(*decodeTask)
		defer t.wg.Done()
		t.ino, t.err = t.a.DecodeInode(t.ref)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating decode pool: %w", err)
	}
	bd.pool = pool
	return bd, nil
}

// Decode resolves every reference, in order. The first failure wins; no
// partial result is returned.
func (bd *BatchDecoder) Decode(refs []Ref) ([]*Inode, error) {
	tasks := make([]decodeTask, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		tasks[i] = decodeTask{wg: &wg, a: bd.a, ref: ref}
		if err := bd.pool.Invoke(&tasks[i]); err != nil {
			wg.Done()
			tasks[i].err = fmt.Errorf("error submitting decode task: %w", err)
		}
	}
	wg.Wait()

	inodes := make([]*Inode, len(refs))
	for i := range tasks {
		if tasks[i].err != nil {
			return nil, tasks[i].err
		}
		inodes[i] = tasks[i].ino
	}
	return inodes, nil
}

func (bd *BatchDecoder) Release() {
	bd.pool.Release()
}

// Walk visits every inode reachable from the root, calling fn with the
// archive path and the decoded inode. Subdirectories are walked
// concurrently; fn must be safe for concurrent calls. The first error stops
// the walk.
func (a *Archive) Walk(fn func(path string, ino *Inode) error) error {
	var g errgroup.Group
	var walk func(name string, ino *Inode) error
	walk = func(name string, ino *Inode) error {
		if err := fn(name, ino); err != nil {
			return err
		}
		if !ino.IsDir() {
			return nil
		}
		entries, err := a.ReadDir(ino)
		if err != nil {
			return err
		}
		for _, e := range entries {
			child := path.Join(name, e.Name)
			ref := e.Ref
			g.Go(func() error {
				ino, err := a.DecodeInode(ref)
				if err != nil {
					return err
				}
				return walk(child, ino)
			})
		}
		return nil
	}
	if err := walk("/", a.root); err != nil {
		_ = g.Wait()
		return err
	}
	return g.Wait()
}
