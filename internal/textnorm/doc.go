// Package textnorm provides the lightweight linguistic normalization used to
// match editorial keywords against catalog product titles.
//
// The primary use cases are:
//   - Folding accented characters so "inalámbrica" and "inalambrica" compare equal
//   - Reducing Spanish inflectional endings to a shared stem ("aspiradoras",
//     "aspiradora" -> "aspirador")
//   - Deciding whether two phrases share at least one stemmed token
//
// The stemmer is deliberately crude: it strips the longest matching suffix from
// a fixed candidate list and never touches words of three characters or fewer.
// It trades precision for recall when comparing short marketing keywords with
// long catalog titles, and must not be mistaken for a lemmatizer.
package textnorm
