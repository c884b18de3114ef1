// Package store is a small in-memory, column-oriented record store whose
// queries can be iterated in parallel.
//
// Records (entities) are rows; each registered component is a typed column.
// A Query declares which columns it reads and writes and which rows it
// selects. Iterating a query first acquires an access token from the world's
// ledger, so a query writing a column cannot overlap with any other live
// query or structural change touching that column:
//
//	w := store.NewWorld(store.DefaultConfig())
//	pos := store.Register[Vec2](w, "position")
//	vel := store.Register[Vec2](w, "velocity")
//
//	q := store.NewQuery("movement").Write(pos).Read(vel)
//	win, _ := w.BeginRun(ctx, lastRun)
//	it, err := w.ParIter(q, win)
//	if err != nil {
//		return err
//	}
//	it.ForEach(func(item store.Item) {
//		p := store.Write(item, pos)
//		v := store.Read(item, vel)
//		p.X += v.X
//		p.Y += v.Y
//	})
//
// Item accessors check the query's declared access and panic on undeclared
// reads or writes; this is what keeps concurrent batches from touching data
// the token does not cover.
package store
