// Package transfer is the Go API over the Mooncake transfer engine.
//
// A typical session registers an arena and moves data between it and a
// remote segment:
//
//	eng, err := transfer.Open(transfer.Config{
//	    MetadataURI:     "etcd://10.0.0.1:2379",
//	    LocalServerName: "node-a:12345",
//	})
//	if err != nil { ... }
//	defer eng.Close()
//
//	buf := arena.New(64 << 20)
//	defer buf.Close()
//	if err := eng.RegisterArena(buf); err != nil { ... }
//	defer eng.UnregisterArena(buf)
//
//	seg, _ := eng.SegmentID("node-b:12345")
//	err = eng.Transfer(ctx, []transfer.Request{{
//	    Opcode: transfer.OpRead, Source: buf.Offset(0),
//	    Target: seg, TargetOffset: 0, Length: 4096,
//	}})
//
// The arena must be unregistered before it is closed. Native calls are
// blocking and cannot be interrupted; only Wait and Transfer observe their
// context, between polls.
//
// Builds without the native engine (see internal/bindings) return
// ErrNotBuilt from Open.
package transfer
