package ctxpress

import "strings"

// splitSentences splits text into sentence-sized pieces. A sentence ends at
// '.', '!', or '?' followed by whitespace, or at a newline; chat transcripts
// whose lines lack punctuation still split cleanly. The terminator stays
// with its sentence so no chunk ever starts mid-sentence.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
			continue
		}

		cur.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			next := ' '
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if next == ' ' || next == '\t' || next == '\n' {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}

	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// chunkByTokens groups sentences into chunks of roughly chunkTokens tokens
// each, never splitting a sentence. A single sentence larger than the chunk
// size becomes its own chunk.
func chunkByTokens(text string, chunkTokens int, count func(string) int) []string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}
	if chunkTokens < 1 {
		chunkTokens = 1
	}

	var chunks []string
	var cur strings.Builder
	curTokens := 0

	for _, sentence := range sentences {
		n := count(sentence)
		if curTokens > 0 && curTokens+n > chunkTokens {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
			curTokens = 0
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(sentence)
		curTokens += n
	}

	if s := strings.TrimSpace(cur.String()); s != "" {
		chunks = append(chunks, s)
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
