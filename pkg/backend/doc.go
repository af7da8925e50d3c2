// Package backend delivers composed emails through pluggable providers.
//
// A Registry maps backend names to a Transport and the Interpreter of its
// responses. The Composer renders an entry into a Message, attaching only
// the inline images its HTML references, and the Adapter sends it through
// the entry's backend (or the default) and records the provider verdict.
//
//	registry := backend.NewRegistry("console").
//		Register("console", console.New(os.Stdout), backend.StatusInterpreter{})
//	adapter := backend.NewAdapter(registry, store)
//	msg, err := composer.Compose(ctx, entry)
//	ok, err := adapter.SendWithBackend(ctx, msg, entry)
//
// Provider implementations live in the console, resend, ses and graph
// subpackages.
package backend
