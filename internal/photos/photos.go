// Package photos is the local blob store for verification and impact
// pictures. One JPEG per photo plus a sidecar metadata record; writes are
// temp-file + fsync + atomic rename, deletes move both files into a trash
// subdirectory. The filename carries the sanitized photo key and a
// millisecond timestamp, so listings sort without touching the sidecars.
package photos

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	prefixVerification = "PHOTO_"
	prefixImpact       = "IMPACT_"
	trashDir           = "trash"
	metaSuffix         = ".meta.json"
)

var (
	// ErrNotFound is returned when no blob matches the requested id.
	ErrNotFound = fmt.Errorf("photos: not found")
	// ErrBadID is returned for ids that are not plain stored filenames.
	ErrBadID = fmt.Errorf("photos: invalid id")

	nonAlnum  = regexp.MustCompile(`[^a-zA-Z0-9]`)
	verifName = regexp.MustCompile(`^PHOTO_(.+)_(\d+)\.jpg$`)
)

// Sanitize replaces every non-alphanumeric rune with an underscore. Photo
// keys and bag names pass through this before landing in a filename.
func Sanitize(s string) string {
	return nonAlnum.ReplaceAllString(s, "_")
}

// Key builds the composite lookup key of a verification photo.
func Key(category, bag, section string) string {
	return category + "||" + bag + "||" + section
}

// Meta is the sidecar record stored next to each blob.
type Meta struct {
	Category   string    `json:"category,omitempty"`
	Bag        string    `json:"bag"`
	Section    string    `json:"section,omitempty"`
	Key        string    `json:"key,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Photo describes one stored blob. ID is the stored filename and doubles as
// the external identifier.
type Photo struct {
	ID        string `json:"fileId"`
	FileName  string `json:"fileName"`
	Timestamp int64  `json:"timestamp"`
	Meta      Meta   `json:"meta"`
}

// Store manages the photo directory. All mutating operations hold one mutex:
// the store backs a single process and the blobs are small.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New opens (and creates if needed) the photo directory and its trash
// subdirectory.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, trashDir), 0o750); err != nil {
		return nil, fmt.Errorf("create photo dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root photo directory.
func (s *Store) Dir() string { return s.dir }

// SaveVerification stores a verification photo for the given slot and writes
// its sidecar. The returned Photo carries the generated id.
func (s *Store) SaveVerification(category, bag, section string, data []byte) (*Photo, error) {
	key := Key(category, bag, section)
	meta := Meta{
		Category:   category,
		Bag:        bag,
		Section:    section,
		Key:        key,
		CapturedAt: time.Now().UTC(),
	}
	name := s.nextName(prefixVerification+Sanitize(key)+"_", meta.CapturedAt)
	return s.write(name, data, meta)
}

// SaveImpact stores a vehicle impact photo for a bag with a free-text
// comment.
func (s *Store) SaveImpact(bag, comment string, data []byte) (*Photo, error) {
	meta := Meta{
		Bag:        bag,
		Comment:    comment,
		CapturedAt: time.Now().UTC(),
	}
	name := s.nextName(prefixImpact+Sanitize(bag)+"_", meta.CapturedAt)
	return s.write(name, data, meta)
}

// nextName appends the millisecond timestamp, bumping it while a file with
// the same name already exists.
func (s *Store) nextName(prefix string, at time.Time) string {
	ts := at.UnixMilli()
	for {
		name := fmt.Sprintf("%s%d.jpg", prefix, ts)
		if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
			return name
		}
		ts++
	}
}

// write lands blob and sidecar on disk. The blob goes first through a temp
// file, fsync and atomic rename; a sidecar failure rolls the blob back.
func (s *Store) write(name string, data []byte, meta Meta) (*Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := filepath.Join(s.dir, name)
	tmp := full + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("fsync blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("rename blob: %w", err)
	}

	if err := s.writeMeta(name, meta); err != nil {
		os.Remove(full)
		return nil, err
	}

	return &Photo{
		ID:        name,
		FileName:  name,
		Timestamp: timestampOf(name),
		Meta:      meta,
	}, nil
}

func (s *Store) writeMeta(name string, meta Meta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	path := filepath.Join(s.dir, name+metaSuffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o640); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename sidecar: %w", err)
	}
	return nil
}

func (s *Store) readMeta(name string) (Meta, error) {
	var meta Meta
	raw, err := os.ReadFile(filepath.Join(s.dir, name+metaSuffix))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// timestampOf extracts the millisecond suffix from a stored filename.
func timestampOf(name string) int64 {
	base := strings.TrimSuffix(name, ".jpg")
	i := strings.LastIndex(base, "_")
	if i < 0 {
		return 0
	}
	ts, err := strconv.ParseInt(base[i+1:], 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// validID rejects anything that could escape the photo directory.
func validID(id string) bool {
	return id != "" && id == filepath.Base(id) &&
		!strings.HasPrefix(id, ".") &&
		strings.HasSuffix(id, ".jpg")
}

// list returns the photos whose filenames carry the given prefix, newest
// first.
func (s *Store) list(prefix string) ([]Photo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan photo dir: %w", err)
	}
	var out []Photo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		meta, err := s.readMeta(name)
		if err != nil {
			// Blob without sidecar still lists; the filename carries enough.
			log.Warn().Str("file", name).Err(err).Msg("photo sidecar unreadable")
		}
		out = append(out, Photo{
			ID:        name,
			FileName:  name,
			Timestamp: timestampOf(name),
			Meta:      meta,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

// ListVerification returns all verification photos of one slot, newest
// first.
func (s *Store) ListVerification(category, bag, section string) ([]Photo, error) {
	return s.list(prefixVerification + Sanitize(Key(category, bag, section)) + "_")
}

// LatestVerification returns the most recent photo of a slot, or ErrNotFound.
func (s *Store) LatestVerification(category, bag, section string) (*Photo, error) {
	photos, err := s.ListVerification(category, bag, section)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, ErrNotFound
	}
	return &photos[0], nil
}

// ListImpacts returns all impact photos of one bag, newest first.
func (s *Store) ListImpacts(bag string) ([]Photo, error) {
	return s.list(prefixImpact + Sanitize(bag) + "_")
}

// Open returns the blob for reading. The caller closes it.
func (s *Store) Open(id string) (*os.File, error) {
	if !validID(id) {
		return nil, ErrBadID
	}
	f, err := os.Open(filepath.Join(s.dir, id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete soft-deletes a blob: blob and sidecar move into trash/. The removed
// photo's metadata is returned so callers can update the presence map and
// the event log.
func (s *Store) Delete(id string) (*Photo, error) {
	if !validID(id) {
		return nil, ErrBadID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	full := filepath.Join(s.dir, id)
	if _, err := os.Stat(full); os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	meta, _ := s.readMeta(id)

	if err := os.Rename(full, filepath.Join(s.dir, trashDir, id)); err != nil {
		return nil, fmt.Errorf("trash blob: %w", err)
	}
	sidecar := full + metaSuffix
	if err := os.Rename(sidecar, filepath.Join(s.dir, trashDir, id+metaSuffix)); err != nil && !os.IsNotExist(err) {
		log.Warn().Str("file", id).Err(err).Msg("sidecar not trashed")
	}

	return &Photo{ID: id, FileName: id, Timestamp: timestampOf(id), Meta: meta}, nil
}

// UpdateImpactComment rewrites the comment of an impact photo's sidecar.
func (s *Store) UpdateImpactComment(id, comment string) error {
	if !validID(id) || !strings.HasPrefix(id, prefixImpact) {
		return ErrBadID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMeta(id)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	meta.Comment = comment
	return s.writeMeta(id, meta)
}

// RenameBag migrates both photo families of a bag to a new name: impact
// blobs get the new sanitized prefix, verification blobs get a new key built
// from the sidecar's category and section. Sidecars are rewritten in place.
func (s *Store) RenameBag(oldName, newName, fallbackCategory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan photo dir: %w", err)
	}

	oldImpact := prefixImpact + Sanitize(oldName) + "_"
	newImpact := prefixImpact + Sanitize(newName) + "_"

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jpg") {
			continue
		}

		if strings.HasPrefix(name, oldImpact) {
			meta, _ := s.readMeta(name)
			meta.Bag = newName
			target := newImpact + strings.TrimPrefix(name, oldImpact)
			if err := s.move(name, target, meta); err != nil {
				return err
			}
			continue
		}

		if !strings.HasPrefix(name, prefixVerification) {
			continue
		}
		meta, err := s.readMeta(name)
		if err != nil || meta.Bag != oldName {
			continue
		}
		cat := meta.Category
		if cat == "" {
			cat = fallbackCategory
		}
		if cat == "" || meta.Section == "" {
			continue
		}
		meta.Bag = newName
		meta.Category = cat
		meta.Key = Key(cat, newName, meta.Section)
		target := fmt.Sprintf("%s%s_%d.jpg", prefixVerification, Sanitize(meta.Key), timestampOf(name))
		if err := s.move(name, target, meta); err != nil {
			return err
		}
	}
	return nil
}

// move renames a blob and replaces its sidecar under the new name.
func (s *Store) move(oldName, newName string, meta Meta) error {
	if oldName == newName {
		return s.writeMeta(oldName, meta)
	}
	if err := os.Rename(filepath.Join(s.dir, oldName), filepath.Join(s.dir, newName)); err != nil {
		return fmt.Errorf("rename blob %s: %w", oldName, err)
	}
	os.Remove(filepath.Join(s.dir, oldName+metaSuffix))
	return s.writeMeta(newName, meta)
}

// PresenceMap scans the directory and returns sanitized-key -> true for
// every slot holding at least one verification photo.
func (s *Store) PresenceMap() (map[string]bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan photo dir: %w", err)
	}
	m := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if match := verifName.FindStringSubmatch(e.Name()); match != nil {
			m[match[1]] = true
		}
	}
	return m, nil
}
