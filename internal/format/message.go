// Package format builds Telegram message text together with its entities.
package format

import (
	"strings"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UTF16Len is the length of s in UTF-16 code units, the unit Telegram uses
// for entity offsets and lengths.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Message is plain text plus the entities that style it.
type Message struct {
	Text     string
	Entities []tgbotapi.MessageEntity
}

// Builder appends text segments and tracks entity offsets as it goes.
type Builder struct {
	sb       strings.Builder
	offset   int
	entities []tgbotapi.MessageEntity
}

func (b *Builder) Text(s string) *Builder {
	b.sb.WriteString(s)
	b.offset += UTF16Len(s)
	return b
}

func (b *Builder) Bold(s string) *Builder {
	return b.styled("bold", s)
}

func (b *Builder) Italic(s string) *Builder {
	return b.styled("italic", s)
}

func (b *Builder) Line() *Builder {
	return b.Text("\n")
}

func (b *Builder) styled(kind, s string) *Builder {
	if s == "" {
		return b
	}
	b.entities = append(b.entities, tgbotapi.MessageEntity{
		Type:   kind,
		Offset: b.offset,
		Length: UTF16Len(s),
	})
	return b.Text(s)
}

func (b *Builder) Build() Message {
	return Message{
		Text:     strings.TrimRight(b.sb.String(), " \n"),
		Entities: b.entities,
	}
}

// NewTelegram turns m into a sendable message for chatID.
func NewTelegram(chatID int64, m Message) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	msg.Entities = m.Entities
	return msg
}
