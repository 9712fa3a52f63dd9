package sessions

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCredentialsFile = "credentials.yaml"
	fileVersion            = "1.0"
)

// credentialFile is the on-disk layout of a FileStore.
type credentialFile struct {
	Version   string            `yaml:"version"`
	Timestamp time.Time         `yaml:"timestamp"`
	Values    map[string]string `yaml:"values"`
}

// FileStore persists console values in a YAML file readable only by the
// owner. Every mutation is committed immediately.
type FileStore struct {
	lock sync.Mutex
	path string
	file credentialFile
}

// DefaultCredentialsPath returns ~/.config/jvmanager/credentials.yaml.
func DefaultCredentialsPath() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".config", "jvmanager", DefaultCredentialsFile), nil
}

// OpenFileStore loads the store at path, creating the file and its
// directory when missing.
func OpenFileStore(path string) (*FileStore, error) {
	if len(path) == 0 {
		defaultPath, err := DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	store := &FileStore{
		path: path,
		file: newCredentialFile(),
	}

	if err := store.Load(); err != nil {
		return nil, err
	}

	return store, nil
}

func newCredentialFile() credentialFile {
	return credentialFile{
		Version:   fileVersion,
		Timestamp: time.Now().UTC(),
		Values:    make(map[string]string),
	}
}

func (f *FileStore) Path() string {
	return f.path
}

// Timestamp is the time of the last commit.
func (f *FileStore) Timestamp() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.file.Timestamp
}

func (f *FileStore) Get(key string) (string, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	value, ok := f.file.Values[key]
	return value, ok
}

func (f *FileStore) Set(key string, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	logrus.WithFields(logrus.Fields{
		"key":  key,
		"path": f.path,
	}).Debugln("Setting credential value")

	previous, existed := f.file.Values[key]
	f.file.Values[key] = value
	if err := f.commit(); err != nil {
		if existed {
			f.file.Values[key] = previous
		} else {
			delete(f.file.Values, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Delete(key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	previous, ok := f.file.Values[key]
	if !ok {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"key":  key,
		"path": f.path,
	}).Debugln("Removing credential value")

	delete(f.file.Values, key)
	if err := f.commit(); err != nil {
		f.file.Values[key] = previous
		return err
	}
	return nil
}

// Load re-reads the file from disk, discarding in-memory state. An empty or
// unparsable file is reinitialised rather than reported.
func (f *FileStore) Load() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	file, err := f.open()
	if err != nil {
		return err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return err
	}

	if fileInfo.Size() == 0 {
		f.file = newCredentialFile()
		return nil
	}

	var loaded credentialFile
	if err := yaml.NewDecoder(file).Decode(&loaded); err != nil {
		logrus.WithError(err).Errorf("Failed to parse credentials file %s, reinitializing", f.path)
		f.file = newCredentialFile()
		return nil
	}

	if loaded.Values == nil {
		loaded.Values = make(map[string]string)
	}

	f.file = loaded
	return nil
}

// commit writes the current state. Callers must hold the lock.
func (f *FileStore) commit() error {
	file, err := f.open()
	if err != nil {
		return err
	}
	defer file.Close()

	// Truncate the file to ensure clean write
	if err := file.Truncate(0); err != nil {
		return err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return err
	}

	f.file.Timestamp = time.Now().UTC()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(f.file); err != nil {
		return err
	}
	return encoder.Close()
}

func (f *FileStore) open() (*os.File, error) {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}

	// Only allow read/write access to the owner
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials file: %w", err)
	}
	return file, nil
}
