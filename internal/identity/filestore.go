// Package identity persists generated agent identities on disk so a
// daemon restart keeps its DID and key material.
package identity

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/agentwire/didwba/pkg/agent"
	"github.com/agentwire/didwba/pkg/cryptography"
	"github.com/agentwire/didwba/pkg/did/wba"
)

var ErrNotFound = errors.New("identity not found")

type identityFile struct {
	Ids []identityFileEntry `yaml:"ids"`
}

type identityFileEntry struct {
	DID      string `yaml:"did"`
	Key      string `yaml:"key"`
	Document string `yaml:"document"`
	Created  string `yaml:"created,omitempty"`
}

// FileStore keeps identities in a single YAML file. The private key
// is stored as its PEM text; the document as its published JSON,
// since random key ids make it impossible to regenerate.
type FileStore struct {
	path string
	ids  identityFile
	idx  map[wba.DID]*agent.Identity

	mu sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	f := &FileStore{path: path}
	if err := f.read(); err != nil {
		return nil, err
	}

	return f, nil
}

func (fs *FileStore) read() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening identity file for read")
	}
	defer f.Close()

	d, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading identity file")
	}

	if err := yaml.Unmarshal(d, &fs.ids); err != nil {
		return errors.Wrap(err, "unmarshalling identity data")
	}

	return fs.buildIdx()
}

func (fs *FileStore) buildIdx() error {
	//assumes locked fs.mu

	fs.idx = make(map[wba.DID]*agent.Identity, len(fs.ids.Ids))

	for _, e := range fs.ids.Ids {
		id, err := decodeEntry(e)
		if err != nil {
			return errors.Wrapf(err, "decoding identity %s", e.DID)
		}

		fs.idx[id.DID] = id
	}

	return nil
}

func decodeEntry(e identityFileEntry) (*agent.Identity, error) {
	kp, err := cryptography.ParsePrivateKeyPEM([]byte(e.Key))
	if err != nil {
		return nil, errors.Wrap(err, "parsing private key")
	}

	doc := &wba.Document{}
	if err := json.Unmarshal([]byte(e.Document), doc); err != nil {
		return nil, errors.Wrap(err, "unmarshalling document")
	}

	if err := doc.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating stored document")
	}

	if doc.ID != e.DID {
		return nil, errors.Errorf("stored document id %s does not match %s", doc.ID, e.DID)
	}

	id := &agent.Identity{
		DID:      wba.DID(e.DID),
		KeyPair:  kp,
		Document: doc,
	}

	if e.Created != "" {
		if ts, err := time.Parse(time.RFC3339, e.Created); err == nil {
			id.Created = ts
		}
	}

	return id, nil
}

func (fs *FileStore) Add(id *agent.Identity) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.idx[id.DID]; ok {
		return nil
	}

	docJSON, err := json.Marshal(id.Document)
	if err != nil {
		return errors.Wrap(err, "marshalling document")
	}

	fs.ids.Ids = append(fs.ids.Ids, identityFileEntry{
		DID:      string(id.DID),
		Key:      string(id.PrivateKeyPEM()),
		Document: string(docJSON),
		Created:  id.Created.Format(time.RFC3339),
	})
	fs.idx[id.DID] = id

	return fs.write()
}

func (fs *FileStore) write() error {
	//assumes locked fs.mu

	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening identity file for write")
	}
	defer f.Close()

	d, err := yaml.Marshal(&fs.ids)
	if err != nil {
		return errors.Wrap(err, "marshalling identity data")
	}

	f.Truncate(0)
	_, err = f.Write(d)
	return err
}

func (fs *FileStore) Find(did wba.DID) (*agent.Identity, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	i, ok := fs.idx[did]
	if !ok {
		return nil, ErrNotFound
	}

	return i, nil
}

func (fs *FileStore) List() ([]*agent.Identity, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids := make([]*agent.Identity, 0, len(fs.idx))
	for _, id := range fs.idx {
		ids = append(ids, id)
	}

	return ids, nil
}
