package velazk

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/recursion/plonk"
)

// Wire format versions, bumped whenever an envelope layout changes.
const TRACE_VERSION = 1
const CHUNK_PROOF_VERSION = 1
const BATCH_PROOF_VERSION = 1
const MANIFEST_VERSION = 1

// The transition circuit exposes exactly pre-state, post-state and the
// data-availability hash, in that order.
const NUM_CHUNK_PUBLICS = 3

// Byte sizes of canonical big-endian field encodings on the wire.
const STATE_ROOT_SIZE = 32 // BLS12-377 fr
const CHUNK_HASH_SIZE = 48 // BW6-761 fr

// Parameter directory contents: one canonical KZG SRS per curve plus the
// digest manifest.
const FILE_SRS_INNER = "srs_bls12377.bin"
const FILE_SRS_OUTER = "srs_bw6761.bin"
const FILE_MANIFEST = "manifest.bin"

// Assets directory contents: per-role key material plus the digest manifest.
const FILE_CHUNK_CCS = "chunk.ccs"
const FILE_CHUNK_PK = "chunk.pk"
const FILE_CHUNK_VK = "chunk.vk"
const FILE_BATCH_CCS = "batch.ccs"
const FILE_BATCH_PK = "batch.pk"
const FILE_BATCH_VK = "batch.vk"

// Chunk proofs live on BLS12-377 so the BW6-761 aggregation circuit can
// verify them natively.
var FIELD_INNER = ecc.BLS12_377.ScalarField()
var FIELD_OUTER = ecc.BW6_761.ScalarField()

// Chunk proofs are produced and checked with recursion-friendly transcript
// options so the very same proofs remain verifiable inside the aggregation
// circuit.
var OPT_CHUNK_PROVER = plonk.GetNativeProverOptions(FIELD_OUTER, FIELD_INNER)
var OPT_CHUNK_VERIFIER = plonk.GetNativeVerifierOptions(FIELD_OUTER, FIELD_INNER)
