// Package errs provides the structured error type shared by the snapshot
// codecs, the layout engine and the render façade.
//
// Errors carry an Op (the component that failed, e.g. "png" or "deflate") and
// a Kind (the failure category). Callers branch on the Kind:
//
//	if errs.KindOf(err) == errs.KindMalformedInput {
//		// corrupt file, never retry
//	}
//
// or match a category with errors.Is:
//
//	errors.Is(err, &errs.Error{Op: "png", Kind: errs.KindMalformedInput})
//
// Codec errors are deterministic; nothing in this module retries them.
package errs
