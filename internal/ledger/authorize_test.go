package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slate/internal/ir"
	"github.com/roach88/slate/internal/testutil"
)

func singleFailure(t *testing.T, etx EnrichedTransaction, node ir.NodeID) FailedAuthorization {
	t.Helper()
	require.Len(t, etx.FailedAuthorizations, 1)
	fa, ok := etx.FailedAuthorizations[node]
	require.True(t, ok, "expected failure on node %d", node)
	return fa
}

func TestAuthorize_CreateMissingAuth(t *testing.T) {
	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.Create("cid-1", "Iou", []ir.Party{"Alice", "Bob"}, []ir.Party{"Alice", "Bob"}))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureCreateMissingAuthorization, fa.Code)
	assert.Equal(t, ir.TemplateID("Iou"), fa.Template)
	assert.Equal(t, ir.NewPartySet("Alice"), fa.Authorizers)
	assert.Equal(t, ir.NewPartySet("Alice", "Bob"), fa.Required)
}

func TestAuthorize_NoSignatories(t *testing.T) {
	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.Create("cid-1", "Iou", nil, []ir.Party{"Alice"}))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureNoSignatories, fa.Code)
}

func TestAuthorize_MaintainersNotSubsetOfSignatories(t *testing.T) {
	b := testutil.NewTxBuilder()
	create := testutil.Keyed(
		testutil.Create("cid-1", "Iou", []ir.Party{"Alice"}, []ir.Party{"Alice"}),
		testutil.TextKey("Iou", "k"), "Alice", "Bob")
	nid := b.Root(create)

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureMaintainersNotSubsetOfSignatories, fa.Code)
	// The two diagnostic sets are the signatories and the maintainers.
	assert.Equal(t, ir.NewPartySet("Alice"), fa.Authorizers)
	assert.Equal(t, ir.NewPartySet("Alice", "Bob"), fa.Required)
}

func TestAuthorize_MaintainersSubsetPasses(t *testing.T) {
	b := testutil.NewTxBuilder()
	create := testutil.Keyed(
		testutil.Create("cid-1", "Iou", []ir.Party{"Alice", "Bob"}, []ir.Party{"Alice", "Bob"}),
		testutil.TextKey("Iou", "k"), "Bob")
	b.Root(create)

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice", "Bob")})
	assert.Empty(t, etx.FailedAuthorizations)
}

func TestAuthorize_ExerciseNoControllers(t *testing.T) {
	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.Exercise("cid-1", "Iou", "Transfer",
		nil, []ir.Party{"Alice"}, []ir.Party{"Alice"}, true, nil))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureNoControllers, fa.Code)
}

func TestAuthorize_ExerciseActorMismatch(t *testing.T) {
	b := testutil.NewTxBuilder()
	ex := testutil.Exercise("cid-1", "Iou", "Transfer",
		[]ir.Party{"Alice"}, []ir.Party{"Alice"}, []ir.Party{"Alice"}, true, nil)
	ex.ControllersDifferFromActors = true
	nid := b.Root(ex)

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureActorMismatch, fa.Code)
}

func TestAuthorize_ExerciseMissingAuth(t *testing.T) {
	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.Exercise("cid-1", "Iou", "Transfer",
		[]ir.Party{"Bob"}, []ir.Party{"Alice"}, []ir.Party{"Alice", "Bob"}, false, nil))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureExerciseMissingAuthorization, fa.Code)
	assert.Equal(t, ir.NewPartySet("Alice"), fa.Authorizers)
	assert.Equal(t, ir.NewPartySet("Bob"), fa.Required)
}

func TestAuthorize_FirstFailureWinsPerNode(t *testing.T) {
	// Empty actors and a mismatch flag both violate; the first check in
	// order (no-controllers) is the one recorded.
	b := testutil.NewTxBuilder()
	ex := testutil.Exercise("cid-1", "Iou", "Transfer",
		nil, []ir.Party{"Alice"}, []ir.Party{"Alice"}, true, nil)
	ex.ControllersDifferFromActors = true
	nid := b.Root(ex)

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureNoControllers, fa.Code)
}

func TestAuthorize_FetchStakeholderOverlap(t *testing.T) {
	b := testutil.NewTxBuilder()
	b.Root(testutil.Fetch("cid-1", "Iou", []ir.Party{"Alice", "Bob"}))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})
	assert.Empty(t, etx.FailedAuthorizations)
}

func TestAuthorize_FetchMissingAuth(t *testing.T) {
	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.Fetch("cid-1", "Iou", []ir.Party{"Bob"}))

	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})

	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureFetchMissingAuthorization, fa.Code)
}

func TestAuthorize_LookupByKeyStricterThanFetch(t *testing.T) {
	// Maintainers {Alice, Bob} under authorizers {Alice}: the lookup fails
	// even though a fetch with those parties as stakeholders would pass.
	// Negative lookups leak existence, so full maintainer authority is
	// required.
	key := testutil.TextKey("Iou", "k")

	b := testutil.NewTxBuilder()
	nid := b.Root(testutil.LookupByKey("Iou", key, []ir.Party{"Alice", "Bob"}, "cid-1"))
	etx := EnrichTransaction(b.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})
	fa := singleFailure(t, etx, nid)
	assert.Equal(t, FailureLookupByKeyMissingAuthorization, fa.Code)

	b2 := testutil.NewTxBuilder()
	b2.Root(testutil.Fetch("cid-1", "Iou", []ir.Party{"Alice", "Bob"}))
	etx2 := EnrichTransaction(b2.Build(), Authorize{Authorizers: ir.NewPartySet("Alice")})
	assert.Empty(t, etx2.FailedAuthorizations)
}

func TestAuthorize_DontAuthorizeRecordsNothing(t *testing.T) {
	// Every node shape below would fail under Authorize; under
	// DontAuthorize the failure map stays empty.
	b := testutil.NewTxBuilder()
	b.Root(testutil.Create("cid-1", "Iou", nil, []ir.Party{"Alice"}))
	ex := testutil.Exercise("cid-2", "Iou", "Transfer", nil, nil, nil, true, nil)
	ex.ControllersDifferFromActors = true
	b.Root(ex)
	b.Root(testutil.Fetch("cid-3", "Iou", []ir.Party{"Bob"}))
	b.Root(testutil.LookupByKey("Iou", testutil.TextKey("Iou", "k"), []ir.Party{"Bob"}, ""))

	etx := EnrichTransaction(b.Build(), DontAuthorize{})
	assert.Empty(t, etx.FailedAuthorizations)
}
