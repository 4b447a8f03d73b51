package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/slate/internal/harness"
	"github.com/roach88/slate/internal/ir"
	"github.com/roach88/slate/internal/ledger"
)

// RunRecord is one archived run.
type RunRecord struct {
	Token     string
	Scenario  string
	Pass      bool
	StartedAt string
}

// StepRecord is one archived trace step: the canonical JSON payload plus
// its content digest.
type StepRecord struct {
	Seq     int
	Kind    string
	Payload string
	Digest  string
}

// EventRecord summarizes one committed event of the final ledger.
type EventRecord struct {
	EventID   string
	Kind      string
	Template  string
	Witnesses string // canonical JSON array of parties
	Consumed  bool
	Digest    string
}

// StepsFromResult converts a harness trace into step records. Payloads are
// canonical JSON so identical runs archive byte-identically; digests are
// domain-separated content hashes.
func StepsFromResult(result *harness.Result) ([]StepRecord, error) {
	steps := make([]StepRecord, 0, len(result.Trace))
	for _, ev := range result.Trace {
		payload := map[string]any{
			"kind": ev.Kind,
		}
		switch ev.Kind {
		case harness.TraceCommit:
			payload["committer"] = ev.Committer
			payload["step_id"] = ev.StepID
			payload["roots"] = toAnySlice(ev.Roots)
		case harness.TraceCommitRejected:
			payload["committer"] = ev.Committer
			payload["rejected"] = ev.Rejected
		case harness.TracePassTime:
			payload["delta_micros"] = ev.DeltaMicros
		case harness.TraceMustFail:
			payload["actor"] = ev.Actor
		case harness.TraceLookup:
			payload["contract"] = ev.Contract
			payload["view"] = ev.View
			payload["outcome"] = ev.Outcome
		}

		data, err := ir.MarshalCanonical(payload)
		if err != nil {
			return nil, fmt.Errorf("step %d: marshal payload: %w", ev.Seq, err)
		}
		digest, err := ir.StepDigest(payload)
		if err != nil {
			return nil, fmt.Errorf("step %d: digest: %w", ev.Seq, err)
		}
		steps = append(steps, StepRecord{
			Seq:     ev.Seq,
			Kind:    ev.Kind,
			Payload: string(data),
			Digest:  digest,
		})
	}
	return steps, nil
}

// EventsFromLedger summarizes every committed node of the final ledger,
// ordered by event id (numeric step, then node) for deterministic inserts.
func EventsFromLedger(l *ledger.Ledger) ([]EventRecord, error) {
	data := l.Data()
	ids := make([]ir.EventID, 0, len(data.Nodes))
	for eid := range data.Nodes {
		ids = append(ids, eid)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, _ := strconv.Atoi(ids[i].Step)
		sj, _ := strconv.Atoi(ids[j].Step)
		if si != sj {
			return si < sj
		}
		return ids[i].Node < ids[j].Node
	})

	events := make([]EventRecord, 0, len(ids))
	for _, eid := range ids {
		info := data.Nodes[eid]
		witnesses := make([]any, 0, len(info.ObservingSince))
		parties := make([]string, 0, len(info.ObservingSince))
		for p := range info.ObservingSince {
			parties = append(parties, string(p))
		}
		sort.Strings(parties)
		for _, p := range parties {
			witnesses = append(witnesses, p)
		}
		witnessJSON, err := ir.MarshalCanonical(witnesses)
		if err != nil {
			return nil, fmt.Errorf("event %s: marshal witnesses: %w", eid, err)
		}

		kind, template := nodeKind(info.Node)
		digest, err := ir.EventDigest(map[string]any{
			"event_id":  eid.String(),
			"kind":      kind,
			"template":  template,
			"witnesses": witnesses,
			"consumed":  info.Consumer != nil,
		})
		if err != nil {
			return nil, fmt.Errorf("event %s: digest: %w", eid, err)
		}
		events = append(events, EventRecord{
			EventID:   eid.String(),
			Kind:      kind,
			Template:  template,
			Witnesses: string(witnessJSON),
			Consumed:  info.Consumer != nil,
			Digest:    digest,
		})
	}
	return events, nil
}

func nodeKind(n ir.Node[ir.EventID]) (kind, template string) {
	switch node := n.(type) {
	case ir.CreateNode[ir.EventID]:
		return "create", string(node.Template())
	case ir.FetchNode[ir.EventID]:
		return "fetch", string(node.Template)
	case ir.ExerciseNode[ir.EventID]:
		return "exercise", string(node.Template)
	case ir.LookupByKeyNode[ir.EventID]:
		return "lookup_by_key", string(node.Template)
	default:
		return "unknown", ""
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// FormatWitnesses renders a witness JSON array for display.
func FormatWitnesses(witnessJSON string) string {
	return strings.Trim(witnessJSON, "[]")
}
