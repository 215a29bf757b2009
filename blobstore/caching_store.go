package blobstore

import (
	"context"
	"io"

	"github.com/hupe1980/gribgo/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and adds block-level read caching.
//
// Index builds touch only record headers while materialization re-reads whole
// payloads, so the same byte ranges are fetched more than once per dataset.
// For remote stores a block cache turns the second pass into memory reads.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 64KB if <= 0.
func NewCachingStore(inner BlobStore, bc cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &CachingStore{
		inner:     inner,
		cache:     bc,
		blockSize: blockSize,
	}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// cachingBlob serves ReadAt from cached fixed-size blocks.
type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		// Intersection of the block with the requested range.
		from := max(blkStart, off)
		to := min(blkStart+b.blockSize, off+int64(len(p)))
		if to <= from {
			continue
		}

		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}

		src := from - blkStart
		want := to - from
		if src+want > int64(len(data)) {
			// Short tail block.
			want = int64(len(data)) - src
		}
		if want > 0 {
			total += copy(p[from-off:], data[src:src+want])
		}
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fillCache fetches all missing blocks of [startBlock, endBlock], coalescing
// contiguous runs into single backend reads and fetching runs concurrently.
func (b *cachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	type run struct{ start, count int64 }
	var missing []run

	cur := run{start: -1}
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(b.key(blk)); ok {
			if cur.start != -1 {
				missing = append(missing, cur)
				cur = run{start: -1}
			}
			continue
		}
		if cur.start == -1 {
			cur = run{start: blk, count: 1}
		} else {
			cur.count++
		}
	}
	if cur.start != -1 {
		missing = append(missing, cur)
	}
	if len(missing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range missing {
		r := r
		g.Go(func() error {
			return b.fetchRun(gctx, r.start, r.count)
		})
	}
	return g.Wait()
}

func (b *cachingBlob) fetchRun(ctx context.Context, start, count int64) error {
	off := start * b.blockSize
	size := b.inner.Size()
	if off >= size {
		return nil
	}
	length := count * b.blockSize
	if off+length > size {
		length = size - off
	}

	buf := make([]byte, length)
	if _, err := readFull(ctx, b.inner, buf, off); err != nil {
		return err
	}

	for i := int64(0); i < count; i++ {
		from := i * b.blockSize
		if from >= int64(len(buf)) {
			break
		}
		to := min(from+b.blockSize, int64(len(buf)))
		b.cache.Set(b.key(start+i), buf[from:to])
	}
	return nil
}

func (b *cachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	if data, ok := b.cache.Get(b.key(blk)); ok {
		return data, nil
	}
	// Evicted between fillCache and the copy loop. Re-fetch just this block.
	if err := b.fetchRun(ctx, blk, 1); err != nil {
		return nil, err
	}
	if data, ok := b.cache.Get(b.key(blk)); ok {
		return data, nil
	}
	// The cache refuses the block (e.g. zero capacity). Read it directly.
	off := blk * b.blockSize
	length := min(b.blockSize, b.inner.Size()-off)
	buf := make([]byte, length)
	if _, err := readFull(ctx, b.inner, buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Path: b.name, Block: blk}
}

// readFull reads exactly len(p) bytes, tolerating io.EOF on the final block.
func readFull(ctx context.Context, blob Blob, p []byte, off int64) (int, error) {
	n, err := blob.ReadAt(ctx, p, off)
	if n == len(p) {
		return n, nil
	}
	return n, err
}
