package telegram

import (
	"fmt"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
)

type MessageType string

const (
	MessageTypeText      MessageType = "text"
	MessageTypeAnimation MessageType = "animation"
	MessageTypeAudio     MessageType = "audio"
	MessageTypeContact   MessageType = "contact"
	MessageTypeDice      MessageType = "dice"
	MessageTypeDocument  MessageType = "document"
	MessageTypeLocation  MessageType = "location"
	MessageTypePhoto     MessageType = "photo"
	MessageTypePoll      MessageType = "poll"
	MessageTypeSticker   MessageType = "sticker"
	MessageTypeVenue     MessageType = "venue"
	MessageTypeVideo     MessageType = "video"
	MessageTypeVideoNote MessageType = "video_note"
	MessageTypeVoice     MessageType = "voice"
)

// ExtractContent flattens a message into the string compared for duplicates. Media is identified
// by its file unique id, so resending the same sticker or photo counts as the same content.
func ExtractContent(msg *api.Message) string {
	content := strings.TrimSpace(msg.Text + " " + msg.Caption)

	var media string
	messageType := GetMessageType(msg)
	switch messageType {
	case MessageTypeAnimation:
		media = msg.Animation.FileUniqueID
	case MessageTypeAudio:
		media = msg.Audio.FileUniqueID
	case MessageTypeContact:
		media = msg.Contact.PhoneNumber
	case MessageTypeDice:
		media = fmt.Sprintf("%s (%d)", msg.Dice.Emoji, msg.Dice.Value)
	case MessageTypeDocument:
		media = msg.Document.FileUniqueID
	case MessageTypeLocation:
		media = fmt.Sprintf("%f,%f", msg.Location.Latitude, msg.Location.Longitude)
	case MessageTypePhoto:
		media = msg.Photo[len(msg.Photo)-1].FileUniqueID
	case MessageTypePoll:
		media = msg.Poll.Question
	case MessageTypeSticker:
		media = msg.Sticker.FileUniqueID
	case MessageTypeVenue:
		media = msg.Venue.Title + " " + msg.Venue.Address
	case MessageTypeVideo:
		media = msg.Video.FileUniqueID
	case MessageTypeVideoNote:
		media = msg.VideoNote.FileUniqueID
	case MessageTypeVoice:
		media = msg.Voice.FileUniqueID
	}
	if messageType != MessageTypeText {
		content = strings.TrimSpace(fmt.Sprintf("%s [%s] %s", content, messageType, media))
	}
	return content
}

func GetMessageType(msg *api.Message) MessageType {
	switch {
	case msg.Animation != nil:
		return MessageTypeAnimation
	case msg.Audio != nil:
		return MessageTypeAudio
	case msg.Contact != nil:
		return MessageTypeContact
	case msg.Dice != nil:
		return MessageTypeDice
	case msg.Document != nil:
		return MessageTypeDocument
	case msg.Venue != nil:
		return MessageTypeVenue
	case msg.Location != nil:
		return MessageTypeLocation
	case len(msg.Photo) > 0:
		return MessageTypePhoto
	case msg.Poll != nil:
		return MessageTypePoll
	case msg.Sticker != nil:
		return MessageTypeSticker
	case msg.Video != nil:
		return MessageTypeVideo
	case msg.VideoNote != nil:
		return MessageTypeVideoNote
	case msg.Voice != nil:
		return MessageTypeVoice
	default:
		return MessageTypeText
	}
}
