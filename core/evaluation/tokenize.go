package evaluation

import (
	"strings"
	"unicode"
)

// whitespaceTokens lowercases and splits on whitespace, the tokenization used for BLEU and METEOR
func whitespaceTokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// wordTokens lowercases and keeps runs of letters and digits, the tokenization used for ROUGE-L and concepts
func wordTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ngramCounts counts the n-grams of tokens
func ngramCounts(tokens []string, n int) map[string]int {
	counts := map[string]int{}
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// stopwords are function words that carry no visual concept
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a an the this that these those there here
		is are was were be been being am do does did has have had having
		of in on at by for with from to into onto over under above below near next
		and or but nor so yet as than then while
		it its it's he she they them their his her him we us our you your i me my
		some any each every all both few many much more most other another such
		very just also only not no too up down out off again
		what which who whom whose when where why how
		can could will would shall should may might must
		one two three`) {
		stopwords[w] = struct{}{}
	}
}

func isStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}
