// JSON debug export for the cache (spec.md section 4.D supplement: "a
// JSON debug dump ... for the tracevm trace dump CLI subcommand. This is
// a debug/introspection surface only; it is not consulted by the
// interpreter's hot path"). Built with github.com/tidwall/sjson's
// path-based setters rather than encoding/json + a mirror struct, and
// queried back with github.com/tidwall/gjson's path syntax — both
// already present in the teacher's indirect dependency set via
// go-snaps, now given a direct job.
package tracecache

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DumpJSON renders every resident trace as a JSON document, in
// insertion order, for the `tracevm trace dump` subcommand.
func DumpJSON(c *Cache) ([]byte, error) {
	doc := []byte("{}")
	var err error

	i := 0
	for _, startPC := range c.order {
		entry, ok := c.entries[startPC]
		if !ok {
			continue // evicted since insertion; order is a historical log
		}
		base := fmt.Sprintf("traces.%d", i)
		i++

		if doc, err = sjson.SetBytes(doc, base+".start_pc", entry.StartPC); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".compiled", entry.Code != nil); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".loop_pc", entry.LoopPC); err != nil {
			return nil, err
		}
		if doc, err = sjson.SetBytes(doc, base+".exit_count", len(entry.Exits)); err != nil {
			return nil, err
		}
		for j, exit := range entry.Exits {
			ebase := fmt.Sprintf("%s.exits.%d", base, j)
			if doc, err = sjson.SetBytes(doc, ebase+".index", exit.Index); err != nil {
				return nil, err
			}
			if doc, err = sjson.SetBytes(doc, ebase+".reenter_pc", exit.Reenter.PC); err != nil {
				return nil, err
			}
			if doc, err = sjson.SetBytes(doc, ebase+".hits", entry.HitCount(exit.Index)); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// Query reads a single field out of a DumpJSON document by gjson path,
// e.g. "traces.0.exits.1.hits" or the indexed query form
// "traces.#(start_pc==120).compiled".
func Query(doc []byte, path string) gjson.Result {
	return gjson.GetBytes(doc, path)
}

// ExitHits looks up one exit's hit counter straight out of a dumped
// document, with a gjson query on the trace's start_pc and the exit's index.
func ExitHits(doc []byte, startPC, exitIndex int) int64 {
	path := fmt.Sprintf("traces.#(start_pc==%d).exits.#(index==%d).hits", startPC, exitIndex)
	return Query(doc, path).Int()
}
