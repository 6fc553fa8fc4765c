// Package reduction implements the text reduction engine behind reductiond.
//
// The engine shortens text with one of three deterministic strategies and
// reports how much was saved:
//
//   - semantic: drops common English stop words, keeps token order
//   - syntactic: strips punctuation and symbols, normalizes whitespace
//   - aggressive: normalizes whitespace and truncates to 256 characters
//
// None of the strategies is real compression. They are cheap, total
// functions over any string, including the empty string.
//
// # Measuring text
//
// Lengths are counted in UTF-16 code units and the digest iterates code
// units as well. This keeps savings figures and digests identical to the
// JavaScript service the HTTP contract was first written for, regardless of
// how much non-ASCII text a caller sends.
//
// # Statistics
//
// Every Reduce call folds its savings and latency into a process-wide
// Statistics record. The record is updated as one unit under a mutex, so
// concurrent requests never observe a half-applied update and Reset never
// races a running Reduce. Analyze leaves the record untouched.
//
// # Usage
//
//	engine, err := reduction.NewEngine()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := engine.Reduce(ctx, "the quick brown fox", reduction.AlgorithmSemantic)
//	fmt.Println(res.CompressedText)     // quick brown fox
//	fmt.Println(res.Metrics.SavedChars) // 4
//	fmt.Println(res.Digest)             // 3be79472
//
// The digest is a 32-bit rolling hash meant for correlating log lines and
// responses. It is not an integrity check; collisions are expected.
package reduction
