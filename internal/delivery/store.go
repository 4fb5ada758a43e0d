package delivery

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StoredDocument is a document parked for a limited time behind a URL.
type StoredDocument struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Bytes     []byte    `json:"-"`
}

// DocumentStore keeps assembled documents in memory until they expire. It
// backs the preview window and the save-as download.
type DocumentStore struct {
	cache   *cache.Cache
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewDocumentStore(ttl time.Duration, baseURL string) *DocumentStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &DocumentStore{
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Put stores data and returns its inline URL.
func (s *DocumentStore) Put(filename string, data []byte) StoredDocument {
	doc := StoredDocument{
		ID:        uuid.NewString(),
		Filename:  filename,
		ExpiresAt: s.now().Add(s.ttl),
		Bytes:     data,
	}
	doc.URL = s.URL(doc.ID, false)
	s.cache.Set(doc.ID, doc, s.ttl)
	return doc
}

func (s *DocumentStore) Get(id string) (StoredDocument, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return StoredDocument{}, false
	}
	return v.(StoredDocument), true
}

// URL is where GET /api/v1/documents/:id serves the document. download asks
// for an attachment instead of inline display.
func (s *DocumentStore) URL(id string, download bool) string {
	u := s.baseURL + "/api/v1/documents/" + id
	if download {
		u += "?download=1"
	}
	return u
}

func (s *DocumentStore) Len() int {
	return s.cache.ItemCount()
}
