package plugin

import "strings"

const (
	backslashCharacterConstant   = '\\'
	newlineEscapeConstant        = 'n'
	carriageReturnEscapeConstant = 'r'
	tabEscapeConstant            = 't'
)

// UnescapeString expands backslash sequences (\n, \r, \t, \\) in a plugin
// message. Unrecognized sequences keep the escaped character; a trailing
// backslash is preserved literally.
func UnescapeString(escapedValue string) string {
	var expandedBuilder strings.Builder
	expandedBuilder.Grow(len(escapedValue))

	for characterIndex := 0; characterIndex < len(escapedValue); characterIndex++ {
		currentCharacter := escapedValue[characterIndex]
		if currentCharacter != backslashCharacterConstant || characterIndex+1 == len(escapedValue) {
			expandedBuilder.WriteByte(currentCharacter)
			continue
		}

		characterIndex++
		switch escapedValue[characterIndex] {
		case newlineEscapeConstant:
			expandedBuilder.WriteByte('\n')
		case carriageReturnEscapeConstant:
			expandedBuilder.WriteByte('\r')
		case tabEscapeConstant:
			expandedBuilder.WriteByte('\t')
		case backslashCharacterConstant:
			expandedBuilder.WriteByte('\\')
		default:
			expandedBuilder.WriteByte(escapedValue[characterIndex])
		}
	}

	return expandedBuilder.String()
}
