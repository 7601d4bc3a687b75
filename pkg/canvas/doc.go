// Package canvas tracks identicons from the crafting queue to the canvas.
//
// Every item moves through an explicit state machine:
//
//	Uncommitted --Commit-->   Placed
//	Placed      --Relocate--> Placed
//	Uncommitted --Remove-->   Removed
//	Placed      --Remove-->   Removed
//
// [Next] encodes the table. A [Canvas] adds two guards to Commit: the
// canvas must hold fewer than MaxItems placed items, and the gesture's
// vertical offset must strictly exceed Threshold. A failed guard is an
// [Outcome] with Transitioned false and a [Reason]; the item stays queued.
// Events outside the table fail with errors.ErrCodeInvalidTransition.
//
// Placed positions live in a [Ledger] that the caller may supply. Commit
// and Relocate ask the placement package for a free spot, seeded at the
// drop point, against every other ledger entry.
//
//	c, _ := canvas.New(nil, canvas.WithLogger(logger))
//	item, _ := c.Craft("hello")
//	out, _ := c.Commit(ctx, item.ID, canvas.Gesture{DY: -150})
//	if !out.Transitioned {
//	    fmt.Println("not committed:", out.Reason)
//	}
package canvas
