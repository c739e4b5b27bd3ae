package velazk

import (
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
)

// Deserialization of gnark key material out of a verified snapshot. Each
// loader consumes the whole pinned file; trailing bytes mean the file does
// not belong to this snapshot.

func readInto(raw []byte, dst io.ReaderFrom, what string) error {
	n, err := dst.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSnapshotMismatch, what, err)
	}
	if n != int64(len(raw)) {
		return fmt.Errorf("%w: %s has %d trailing bytes", ErrSnapshotMismatch, what, int64(len(raw))-n)
	}
	return nil
}

func (me *Snapshot) chunkConstraintSystem() (constraint.ConstraintSystem, error) {
	raw, err := me.readAsset(FILE_CHUNK_CCS)
	if err != nil {
		return nil, err
	}
	ccs := plonk.NewCS(ecc.BLS12_377)
	if err := readInto(raw, ccs, FILE_CHUNK_CCS); err != nil {
		return nil, err
	}
	return ccs, nil
}

func (me *Snapshot) chunkProvingKey() (plonk.ProvingKey, error) {
	raw, err := me.readAsset(FILE_CHUNK_PK)
	if err != nil {
		return nil, err
	}
	pk := plonk.NewProvingKey(ecc.BLS12_377)
	if err := readInto(raw, pk, FILE_CHUNK_PK); err != nil {
		return nil, err
	}
	return pk, nil
}

func (me *Snapshot) chunkVerifyingKey() (plonk.VerifyingKey, error) {
	raw, err := me.readAsset(FILE_CHUNK_VK)
	if err != nil {
		return nil, err
	}
	vk := plonk.NewVerifyingKey(ecc.BLS12_377)
	if err := readInto(raw, vk, FILE_CHUNK_VK); err != nil {
		return nil, err
	}
	return vk, nil
}

func (me *Snapshot) batchConstraintSystem() (constraint.ConstraintSystem, error) {
	raw, err := me.readAsset(FILE_BATCH_CCS)
	if err != nil {
		return nil, err
	}
	ccs := plonk.NewCS(ecc.BW6_761)
	if err := readInto(raw, ccs, FILE_BATCH_CCS); err != nil {
		return nil, err
	}
	return ccs, nil
}

func (me *Snapshot) batchProvingKey() (plonk.ProvingKey, error) {
	raw, err := me.readAsset(FILE_BATCH_PK)
	if err != nil {
		return nil, err
	}
	pk := plonk.NewProvingKey(ecc.BW6_761)
	if err := readInto(raw, pk, FILE_BATCH_PK); err != nil {
		return nil, err
	}
	return pk, nil
}

func (me *Snapshot) batchVerifyingKey() (plonk.VerifyingKey, error) {
	raw, err := me.readAsset(FILE_BATCH_VK)
	if err != nil {
		return nil, err
	}
	vk := plonk.NewVerifyingKey(ecc.BW6_761)
	if err := readInto(raw, vk, FILE_BATCH_VK); err != nil {
		return nil, err
	}
	return vk, nil
}

// serializeKey captures a key in gnark's canonical form. Verifying keys
// serialized this way are the byte-stable blobs published to external
// registries.
func serializeKey(k io.WriterTo) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := k.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
