package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/shared/types"
)

const layoutFile = "layout.json.gz"

// LayoutStore persists the workspace layout (tab list plus active tab
// id) to local disk as gzipped JSON. Writes coalesce: a burst of
// layout changes produces one file write carrying the final state.
type LayoutStore struct {
	path   string
	logger *logging.Logger

	mu     sync.Mutex
	latest *types.Layout
	dirty  chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewLayoutStore creates a store rooted at dir, creating it if needed.
func NewLayoutStore(dir string, logger *logging.Logger) (*LayoutStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &LayoutStore{
		path:   filepath.Join(dir, layoutFile),
		logger: logger,
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writer()
	return s, nil
}

// Save records the layout as the latest state and wakes the writer.
// Never blocks.
func (s *LayoutStore) Save(layout *types.Layout) {
	s.mu.Lock()
	s.latest = layout
	s.mu.Unlock()

	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Load reads the persisted layout. A missing file is not an error; it
// returns (nil, nil) so the caller starts fresh.
func (s *LayoutStore) Load() (*types.Layout, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	defer gz.Close()

	var layout types.Layout
	if err := sonic.ConfigDefault.NewDecoder(gz).Decode(&layout); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &layout, nil
}

// Close flushes any pending write and stops the writer.
func (s *LayoutStore) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *LayoutStore) writer() {
	defer s.wg.Done()

	for {
		select {
		case <-s.dirty:
			s.flush()
		case <-s.done:
			select {
			case <-s.dirty:
				s.flush()
			default:
			}
			return
		}
	}
}

func (s *LayoutStore) flush() {
	s.mu.Lock()
	layout := s.latest
	s.mu.Unlock()

	if layout == nil {
		return
	}
	if err := s.write(layout); err != nil {
		s.logger.Warn("layout write failed", zap.Error(err))
	}
}

// write is atomic: temp file in the same directory, then rename.
func (s *LayoutStore) write(layout *types.Layout) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), layoutFile+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := sonic.ConfigDefault.NewEncoder(gz).Encode(layout); err != nil {
		tmp.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
