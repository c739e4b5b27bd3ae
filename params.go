package velazk

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/schollz/progressbar/v3"
)

// Files above this size get a progress bar while loading; key material for
// real circuits runs into gigabytes.
const progressThreshold = 32 << 20

// CircuitParams are the setup-time circuit dimensions. They are recorded in
// the assets manifest and every role checks its inputs against them.
type CircuitParams struct {
	// MaxSteps is the step capacity of the transition circuit.
	MaxSteps uint32 `cbor:"1,keyasint"`
	// Capacity is the chunk capacity of the aggregation circuit.
	Capacity uint32 `cbor:"2,keyasint"`
}

func (me CircuitParams) validate() error {
	if me.MaxSteps < 1 {
		return fmt.Errorf("%w: max steps %d", ErrSnapshotMismatch, me.MaxSteps)
	}
	if me.Capacity < 1 {
		return fmt.Errorf("%w: batch capacity %d", ErrSnapshotMismatch, me.Capacity)
	}
	return nil
}

// manifest pins the contents of a parameters or assets directory. Every file
// is sha256-pinned; the assets manifest additionally records the circuit
// dimensions and the digests of the SRS snapshot its keys were derived from,
// so keys cannot be silently mixed with foreign parameters.
type manifest struct {
	Version uint16            `cbor:"1,keyasint"`
	Params  CircuitParams     `cbor:"2,keyasint"`
	Files   map[string][]byte `cbor:"3,keyasint"`
	SRS     map[string][]byte `cbor:"4,keyasint"`
}

func loadManifest(dir string) (*manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, FILE_MANIFEST))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := cbor.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest in %s: %v", ErrSnapshotMismatch, dir, err)
	}
	if m.Version != MANIFEST_VERSION {
		return nil, fmt.Errorf("%w: unsupported manifest version %d in %s", ErrSnapshotMismatch, m.Version, dir)
	}
	return &m, nil
}

func (me *manifest) write(dir string) error {
	raw, err := encMode().Marshal(me)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FILE_MANIFEST), raw, 0o644)
}

// readVerified loads a pinned file and checks its digest against the
// manifest entry.
func (me *manifest) readVerified(dir, name string) ([]byte, error) {
	want, ok := me.Files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not listed in the manifest of %s", ErrSnapshotMismatch, name, dir)
	}
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	var buf bytes.Buffer
	buf.Grow(int(st.Size()))
	var r io.Reader = f
	if st.Size() >= progressThreshold {
		bar := progressbar.DefaultBytes(st.Size(), "loading "+name)
		r = io.TeeReader(f, bar)
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(buf.Bytes())
	if !bytes.Equal(sum[:], want) {
		return nil, fmt.Errorf("%w: digest of %s does not match its manifest entry", ErrSnapshotMismatch, path)
	}
	return buf.Bytes(), nil
}

// Snapshot is one coherent (parameters, assets) pair. Roles load all key
// material through it, so a key file from a different setup run can never be
// combined with these parameters.
type Snapshot struct {
	ParamsDir string
	AssetsDir string

	params *manifest
	assets *manifest
}

// OpenSnapshot loads and cross-checks both manifests. The assets manifest
// must record the digests of exactly the SRS files present in the parameters
// directory.
func OpenSnapshot(paramsDir, assetsDir string) (*Snapshot, error) {
	pm, err := loadManifest(paramsDir)
	if err != nil {
		return nil, fmt.Errorf("parameters directory: %w", err)
	}
	am, err := loadManifest(assetsDir)
	if err != nil {
		return nil, fmt.Errorf("assets directory: %w", err)
	}
	if err := am.Params.validate(); err != nil {
		return nil, err
	}
	if len(am.SRS) == 0 {
		return nil, fmt.Errorf("%w: assets manifest records no SRS lineage", ErrSnapshotMismatch)
	}
	for name, digest := range am.SRS {
		got, ok := pm.Files[name]
		if !ok {
			return nil, fmt.Errorf("%w: assets were built from %s, which the parameters directory does not provide", ErrSnapshotMismatch, name)
		}
		if !bytes.Equal(digest, got) {
			return nil, fmt.Errorf("%w: assets were built from a different %s", ErrSnapshotMismatch, name)
		}
	}
	return &Snapshot{
		ParamsDir: paramsDir,
		AssetsDir: assetsDir,
		params:    pm,
		assets:    am,
	}, nil
}

// Params returns the circuit dimensions this snapshot was set up with.
func (me *Snapshot) Params() CircuitParams {
	return me.assets.Params
}

// CheckIntegrity re-reads and re-hashes every pinned file in both
// directories. Roles do this lazily for the files they load; this walks
// everything, including the SRS files nothing deserializes at runtime.
func (me *Snapshot) CheckIntegrity() error {
	for name := range me.params.Files {
		if _, err := me.readParam(name); err != nil {
			return err
		}
	}
	for name := range me.assets.Files {
		if _, err := me.readAsset(name); err != nil {
			return err
		}
	}
	return nil
}

func (me *Snapshot) readAsset(name string) ([]byte, error) {
	return me.assets.readVerified(me.AssetsDir, name)
}

func (me *Snapshot) readParam(name string) ([]byte, error) {
	return me.params.readVerified(me.ParamsDir, name)
}
