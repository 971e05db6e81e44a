package campaign

import (
	"bytes"
	"fmt"
	"io/fs"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/temirov/clu/internal/filesystem"
)

const (
	backupPathTemplateConstant = "%s.%d.bck"
	temporarySuffixConstant    = ".tmp"
	filePermissionsConstant    = fs.FileMode(0o644)
	operationReadConstant      = "read"
	operationDecodeConstant    = "decode"
	operationEncodeConstant    = "encode"
	operationWriteConstant     = "write"
	operationReplaceConstant   = "replace"
	operationBackupConstant    = "back up"
	operationRemoveConstant    = "remove"
)

// Clock abstracts time acquisition for deterministic backups.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Store reads and rewrites one campaign file.
type Store struct {
	fileSystem filesystem.FileSystem
	path       string
	clock      Clock
}

// NewStore constructs a Store for path. A nil clock uses the system time.
func NewStore(fileSystem filesystem.FileSystem, path string, clock Clock) (*Store, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Store{fileSystem: fileSystem, path: path, clock: clock}, nil
}

// Path returns the campaign file location.
func (store *Store) Path() string {
	return store.path
}

// Exists reports whether the campaign file is present.
func (store *Store) Exists() bool {
	_, statError := store.fileSystem.Stat(store.path)
	return statError == nil
}

// Load reads and decodes the campaign file.
func (store *Store) Load() (State, error) {
	contents, readError := store.fileSystem.ReadFile(store.path)
	if readError != nil {
		return State{}, StoreError{Operation: operationReadConstant, Path: store.path, Cause: readError}
	}
	state, decodeError := Decode(contents)
	if decodeError != nil {
		return State{}, StoreError{Operation: operationDecodeConstant, Path: store.path, Cause: decodeError}
	}
	return state, nil
}

// Backup copies the campaign file to <path>.<unix-seconds>.bck and returns the backup location.
func (store *Store) Backup() (string, error) {
	contents, readError := store.fileSystem.ReadFile(store.path)
	if readError != nil {
		return "", StoreError{Operation: operationBackupConstant, Path: store.path, Cause: readError}
	}
	backupPath := fmt.Sprintf(backupPathTemplateConstant, store.path, store.clock.Now().Unix())
	if writeError := store.fileSystem.WriteFile(backupPath, contents, filePermissionsConstant); writeError != nil {
		return "", StoreError{Operation: operationBackupConstant, Path: backupPath, Cause: writeError}
	}
	return backupPath, nil
}

// Save encodes state into a temporary sibling file and renames it over the campaign file.
func (store *Store) Save(state State) error {
	contents, encodeError := Encode(state)
	if encodeError != nil {
		return StoreError{Operation: operationEncodeConstant, Path: store.path, Cause: encodeError}
	}
	temporaryPath := store.path + temporarySuffixConstant
	if writeError := store.fileSystem.WriteFile(temporaryPath, contents, filePermissionsConstant); writeError != nil {
		return StoreError{Operation: operationWriteConstant, Path: temporaryPath, Cause: writeError}
	}
	if renameError := store.fileSystem.Rename(temporaryPath, store.path); renameError != nil {
		return StoreError{Operation: operationReplaceConstant, Path: store.path, Cause: renameError}
	}
	return nil
}

// Decode parses a campaign document. Unknown keys are rejected.
func Decode(contents []byte) (State, error) {
	var state State
	decoder := toml.NewDecoder(bytes.NewReader(contents))
	decoder.DisallowUnknownFields()
	if decodeError := decoder.Decode(&state); decodeError != nil {
		return State{}, decodeError
	}
	if state.Targets == nil {
		state.Targets = map[string]Target{}
	}
	return state, nil
}

// Encode renders a campaign document.
func Encode(state State) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := toml.NewEncoder(&buffer)
	encoder.SetIndentTables(false)
	if encodeError := encoder.Encode(state); encodeError != nil {
		return nil, encodeError
	}
	return buffer.Bytes(), nil
}
