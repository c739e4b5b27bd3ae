package velazk

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"

	"github.com/vela-protocol/velazk/circuits/aggregation"
	"github.com/vela-protocol/velazk/circuits/transition"
)

// Setup compiles both circuit tiers for the given dimensions, runs the PLONK
// setup for each, and writes a coherent snapshot: SRS files plus manifest
// into paramsDir, key material plus manifest into assetsDir. The assets
// manifest records the SRS digests, so OpenSnapshot can refuse mixed
// snapshots later.
//
// The SRS comes from unsafekzg and is suitable for development and testing
// only. Production snapshots replace the parameters directory with ceremony
// output; the manifest format is the same.
func Setup(paramsDir, assetsDir string, params CircuitParams) error {
	if err := params.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(paramsDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return err
	}

	chunkTemplate := &transition.Circuit{
		Deltas: make([]frontend.Variable, params.MaxSteps),
		Words:  make([]frontend.Variable, params.MaxSteps),
		Active: make([]frontend.Variable, params.MaxSteps),
	}
	chunkCcs, err := frontend.Compile(FIELD_INNER, scs.NewBuilder, chunkTemplate)
	if err != nil {
		return fmt.Errorf("compile transition circuit: %w", err)
	}
	chunkSrs, chunkSrsLagrange, err := unsafekzg.NewSRS(chunkCcs)
	if err != nil {
		return fmt.Errorf("chunk srs: %w", err)
	}
	chunkPk, chunkVk, err := plonk.Setup(chunkCcs, chunkSrs, chunkSrsLagrange)
	if err != nil {
		return fmt.Errorf("chunk setup: %w", err)
	}

	batchTemplate, err := aggregation.Placeholder(int(params.Capacity), chunkCcs, chunkVk)
	if err != nil {
		return fmt.Errorf("aggregation template: %w", err)
	}
	batchCcs, err := frontend.Compile(FIELD_OUTER, scs.NewBuilder, batchTemplate)
	if err != nil {
		return fmt.Errorf("compile aggregation circuit: %w", err)
	}
	batchSrs, batchSrsLagrange, err := unsafekzg.NewSRS(batchCcs)
	if err != nil {
		return fmt.Errorf("batch srs: %w", err)
	}
	batchPk, batchVk, err := plonk.Setup(batchCcs, batchSrs, batchSrsLagrange)
	if err != nil {
		return fmt.Errorf("batch setup: %w", err)
	}

	pm := &manifest{Version: MANIFEST_VERSION, Files: map[string][]byte{}}
	innerSrsBytes, err := concatTo(chunkSrs, chunkSrsLagrange)
	if err != nil {
		return err
	}
	outerSrsBytes, err := concatTo(batchSrs, batchSrsLagrange)
	if err != nil {
		return err
	}
	if err := writePinned(paramsDir, FILE_SRS_INNER, innerSrsBytes, pm); err != nil {
		return err
	}
	if err := writePinned(paramsDir, FILE_SRS_OUTER, outerSrsBytes, pm); err != nil {
		return err
	}
	if err := pm.write(paramsDir); err != nil {
		return err
	}

	am := &manifest{
		Version: MANIFEST_VERSION,
		Params:  params,
		Files:   map[string][]byte{},
		SRS: map[string][]byte{
			FILE_SRS_INNER: pm.Files[FILE_SRS_INNER],
			FILE_SRS_OUTER: pm.Files[FILE_SRS_OUTER],
		},
	}
	assets := []struct {
		name string
		val  io.WriterTo
	}{
		{FILE_CHUNK_CCS, chunkCcs},
		{FILE_CHUNK_PK, chunkPk},
		{FILE_CHUNK_VK, chunkVk},
		{FILE_BATCH_CCS, batchCcs},
		{FILE_BATCH_PK, batchPk},
		{FILE_BATCH_VK, batchVk},
	}
	for _, a := range assets {
		raw, err := serializeKey(a.val)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", a.name, err)
		}
		if err := writePinned(assetsDir, a.name, raw, am); err != nil {
			return err
		}
	}
	return am.write(assetsDir)
}

// concatTo serializes the canonical and Lagrange halves of an SRS into one
// pinned file. Nothing deserializes it at runtime; it exists so the lineage
// digests in the assets manifest point at real bytes.
func concatTo(vals ...io.WriterTo) ([]byte, error) {
	var buf bytes.Buffer
	for _, v := range vals {
		if _, err := v.WriteTo(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writePinned(dir, name string, data []byte, m *manifest) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	m.Files[name] = sum[:]
	return nil
}
