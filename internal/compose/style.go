// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

// StyleSpec is the fixed editorial specification applied to every draft:
// tone, formatting rules, audience posture, and brand voice.
type StyleSpec struct {
	Rules string
}

// DefaultStyle is the house style for the brand's blog. Article first,
// product second: the draft must read as genuinely useful renovation
// guidance, with products mentioned where they naturally fit.
var DefaultStyle = StyleSpec{
	Rules: `- Write in clear, plain English for non-professional readers.
- Lead with the reader's problem, not the product. Products appear only
  where they genuinely help, never as the opening.
- Practical and concrete: steps, quantities, drying times, surface prep.
- Warm, confident tone. No exclamation marks, no hype words
  ("amazing", "revolutionary"), no superlatives about products.
- Short paragraphs (2-4 sentences). Use subheadings for each major step.
- Mention the brand at most twice in the whole article.
- Close with a short practical summary, not a sales pitch.`,
}
