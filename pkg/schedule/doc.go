// Package schedule turns scheduling requests into stored entries.
//
// The Scheduler resolves the kind for a (name, language) pair, falling back
// to the default language when the requested translation does not exist,
// and hands it to the Generator. The Generator validates the kind and the
// params, resolves every field against the kind defaults and stores the
// entry together with its attachments in one atomic write.
//
//	gen := schedule.NewGenerator(store, schedule.WithBackends(registry))
//	sched := schedule.NewScheduler(kinds, gen, schedule.WithDefaultLanguage("es"))
//	entry, err := sched.Schedule(ctx, "welcome-user", "en", email.Params{
//		Recipients: []string{"ana@example.com"},
//		Context:    map[string]any{"name": "Ana"},
//	})
//
// Validation failures wrap email.ErrValidation and unknown kinds
// email.ErrKindNotFound; nothing is written in either case.
package schedule
