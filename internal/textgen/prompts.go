package textgen

import "fmt"

func rephrasePrompt(text string, n int) string {
	return fmt.Sprintf("Rephrase the following question or statement in %d different ways, "+
		"maintaining its core meaning. Each rephrased version should be distinct. "+
		"Return only the rephrased versions, each on a new line, without any numbering or prefixes.\n\n"+
		"Original: \"%s\"\n\n"+
		"Rephrased versions:", n, text)
}

func describePrompt(word string) string {
	return fmt.Sprintf("Provide a very concise definition or a short descriptive phrase for the word \"%s\". "+
		"The description should be suitable as a brief hint before seeing the word itself. "+
		"For example, for 'apple', a good description might be 'A common fruit'. "+
		"For 'photosynthesis', 'Process plants use to make food'. "+
		"Return only the description, without any introductory phrases like 'The word means...' or 'Description: '.", word)
}
