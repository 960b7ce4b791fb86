// Package token defines the data model shared by the annotation engine.
//
// A sentence is tokenized externally into an ordered list of Tokens. The
// engine tiles that list with Items, where each Item is either a plain
// Token or a labeled Block covering a contiguous run of tokens.
//
// # Offsets
//
// Token offsets are character offsets into the sentence. End is inclusive:
// a one-character token at offset 7 is Token{Start: 7, End: 7}. Selections
// passed to the engine compare their end exclusively, so the span covering
// tokens i..j is Span{Start: tokens[i].Start, End: tokens[j].End + 1}.
//
// # Items
//
// Item is a sealed interface implemented by Token and *Block only. Code that
// walks a partition switches on the concrete type:
//
//	switch v := item.(type) {
//	case token.Token:
//	    // plain token
//	case *token.Block:
//	    // labeled block
//	}
package token
