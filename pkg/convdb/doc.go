// Package convdb is the durable record of conversation turns and enrolled
// voice profiles, kept in a single SQLite file.
//
// The schema ships as embedded migrations applied by Migrate. A Store never
// creates tables itself.
//
// Usage:
//
//	if err := convdb.Migrate(ctx, "app.db"); err != nil {
//	    return err
//	}
//	store := convdb.Open("app.db", convdb.WithLogger(logger))
//	defer store.Close()
//
//	id, err := store.SaveTurn(ctx, convdb.TurnInput{
//	    SessionID:     "s-1",
//	    TurnNumber:    1,
//	    UserAudioPath: "audio/raw/s-1-1.wav",
//	    UserText:      "hello",
//	    AIText:        "hi there",
//	})
//
// Lookups of absent rows return nil with a nil error. Engine failures are
// returned as *StorageError and match ErrStorage.
package convdb
