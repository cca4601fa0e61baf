package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMessageContent_Trims(t *testing.T) {
	req := require.New(t)

	content, err := ValidateMessageContent("  hello \n")
	req.NoError(err)
	req.Equal("hello", content)
}

func TestValidateMessageContent_EmptyRejected(t *testing.T) {
	req := require.New(t)

	_, err := ValidateMessageContent("")
	req.ErrorIs(err, ErrEmptyContent)

	_, err = ValidateMessageContent("   \t\n ")
	req.ErrorIs(err, ErrEmptyContent)
}

func TestValidateMessageContent_LengthBoundary(t *testing.T) {
	req := require.New(t)

	// Exactly at the limit passes
	_, err := ValidateMessageContent(strings.Repeat("a", MaxMessageLen))
	req.NoError(err)

	// One character over fails
	_, err = ValidateMessageContent(strings.Repeat("a", MaxMessageLen+1))
	req.ErrorIs(err, ErrContentTooLong)
}

func TestValidateMessageContent_CountsRunesNotBytes(t *testing.T) {
	req := require.New(t)

	// 2000 multi-byte characters is still within the limit
	_, err := ValidateMessageContent(strings.Repeat("é", MaxMessageLen))
	req.NoError(err)

	_, err = ValidateMessageContent(strings.Repeat("é", MaxMessageLen+1))
	req.ErrorIs(err, ErrContentTooLong)
}
