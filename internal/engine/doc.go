// Package engine holds the contracts for the external electromagnetic
// simulation engine and the environment stager that prepares it for
// deterministic index sampling.
//
// The engine is a single stateful external resource: staging mutates its
// configuration in place, so at most one extraction runs against a given
// engine instance at a time. The stager records every change it makes in
// an ordered undo buffer and guarantees the prior configuration is
// restored on every exit path.
package engine
