// Package formstate tracks mutations of a nested value tree.
//
// Wrap takes a tree built from the containers in package value (objects,
// arrays, dates, maps and sets) and returns a wrapper with the same shape.
// Every read goes through OnPathRead and every effective write reports its
// path to OnPathChanged:
//
//	root := value.NewObject("name", "", "tags", value.NewArray())
//	w := formstate.WrapObject(root, formstate.Callbacks{
//		OnPathChanged: func(p string, meta formstate.ChangeMeta) { ... },
//	})
//	w.Set("name", "ada")                   // "name"
//	tags := w.Get("tags").(*formstate.ArrayNode)
//	tags.Push(value.NewObject("id", 1.0))  // "tags[0]"
//
// Design policy:
//   - Writes equal to the current value are not reported, except container
//     writes into array slots.
//   - Batch array operations (Sort, Splice, Shift, ...) carry the touch entries
//     of moved containers along to their new index (ChangeMeta.Touch).
//   - Repeated reads of an unchanged container return the same wrapper.
//
// Paths are built by package paths; touch and error bookkeeping live in the
// touch and errtree packages and are driven by the caller (see package form,
// and package rules for ready-made validators).
package formstate
