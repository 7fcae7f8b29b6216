package runcmd

import (
	"fmt"
	"strings"
)

const (
	tokenSeparatorCharactersConstant      = " \t\r\n"
	doubleQuoteCharacterConstant          = `"`
	isolatedQuoteSequenceConstant         = " ' "
	tripleQuoteSequenceConstant           = "'''"
	doubleQuoteRejectionTemplateConstant  = "%w: double quotes are not supported"
	ambiguousQuotingRejectionConstant     = "%w: ambiguous single quoting"
	unbalancedQuoteRejectionConstant      = "%w: unbalanced single quote"
	emptyCommandRejectionTemplateConstant = "%w: command is empty"
	argumentCapacityDivisorConstant       = 2
	argumentCapacityPaddingConstant       = 2
	singleQuoteCharacterByteConstant      = byte('\'')
	missingIndexSentinelConstant          = -1
)

// SplitCommand tokenizes a raw command string into an argument vector.
//
// Tokens are separated by runs of space, tab, carriage return, and newline. A
// token may be wrapped entirely in single quotes; the closing quote must be
// present. Double quotes are rejected anywhere in the input because this is
// not a shell and no nested quoting is attempted. The returned vector holds
// the executable path in its first element; no PATH search or expansion is
// performed on it later.
func SplitCommand(command string) ([]string, error) {
	if strings.Contains(command, doubleQuoteCharacterConstant) {
		return nil, fmt.Errorf(doubleQuoteRejectionTemplateConstant, ErrMalformedCommand)
	}

	if strings.Contains(command, isolatedQuoteSequenceConstant) || strings.Contains(command, tripleQuoteSequenceConstant) {
		return nil, fmt.Errorf(ambiguousQuotingRejectionConstant, ErrMalformedCommand)
	}

	// Whitespace-separated tokens cannot exceed len/2+1, padded for safety.
	argumentCapacity := len(command)/argumentCapacityDivisorConstant + argumentCapacityPaddingConstant
	argumentVector := make([]string, 0, argumentCapacity)

	remainingInput := command
	for len(remainingInput) > 0 {
		remainingInput = strings.TrimLeft(remainingInput, tokenSeparatorCharactersConstant)
		if len(remainingInput) == 0 {
			break
		}

		if remainingInput[0] == singleQuoteCharacterByteConstant {
			quotedRemainder := remainingInput[1:]
			closingQuoteIndex := strings.IndexByte(quotedRemainder, singleQuoteCharacterByteConstant)
			if closingQuoteIndex == missingIndexSentinelConstant {
				return nil, fmt.Errorf(unbalancedQuoteRejectionConstant, ErrMalformedCommand)
			}

			argumentVector = append(argumentVector, quotedRemainder[:closingQuoteIndex])
			remainingInput = quotedRemainder[closingQuoteIndex+1:]
			continue
		}

		separatorIndex := strings.IndexAny(remainingInput, tokenSeparatorCharactersConstant)
		if separatorIndex == missingIndexSentinelConstant {
			argumentVector = append(argumentVector, remainingInput)
			remainingInput = ""
			continue
		}

		argumentVector = append(argumentVector, remainingInput[:separatorIndex])
		remainingInput = remainingInput[separatorIndex+1:]
	}

	if len(argumentVector) == 0 {
		return nil, fmt.Errorf(emptyCommandRejectionTemplateConstant, ErrMalformedCommand)
	}

	return argumentVector, nil
}
