package bot

import (
	"testing"

	"ewintr.nl/radiobot/notify"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestEmbeds(t *testing.T) {
	assert.Nil(t, embeds(nil))

	got := embeds(&notify.Embed{
		Title:     "Song",
		URL:       "https://youtu.be/AAAAAAA1111",
		Author:    "Band",
		Thumbnail: "https://i.ytimg.com/x.jpg",
		Color:     0x2ecc71,
		Fields:    []notify.Field{{Name: "Duration", Value: "3:05", Inline: true}},
	})
	assert.Equal(t, []*discordgo.MessageEmbed{{
		Title:     "Song",
		URL:       "https://youtu.be/AAAAAAA1111",
		Color:     0x2ecc71,
		Author:    &discordgo.MessageEmbedAuthor{Name: "Band"},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: "https://i.ytimg.com/x.jpg"},
		Fields:    []*discordgo.MessageEmbedField{{Name: "Duration", Value: "3:05", Inline: true}},
	}}, got)
}

func TestMessageFrom(t *testing.T) {
	got := messageFrom(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "100",
		Content:   "730radio",
		Author:    &discordgo.User{ID: "42", Bot: true},
	}})
	assert.Equal(t, Message{ID: "m1", ChannelID: "100", AuthorID: "42", FromBot: true, Content: "730radio"}, got)
}

func TestInteractionFrom(t *testing.T) {
	command := func(name string) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			ID:        "i1",
			AppID:     "app",
			Token:     "tok",
			ChannelID: "100",
			Type:      discordgo.InteractionApplicationCommand,
			Member:    &discordgo.Member{User: &discordgo.User{ID: "42"}},
			Data: discordgo.ApplicationCommandInteractionData{
				Name: name,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{{
					Name:  CommandOption,
					Type:  discordgo.ApplicationCommandOptionString,
					Value: "https://youtu.be/AAAAAAA1111",
				}},
			},
		}}
	}

	got, ok := interactionFrom(command(CommandName))
	assert.True(t, ok)
	assert.Equal(t, Interaction{ID: "i1", AppID: "app", Token: "tok", ChannelID: "100", UserID: "42", Text: "https://youtu.be/AAAAAAA1111"}, got)

	_, ok = interactionFrom(command("other"))
	assert.False(t, ok)

	_, ok = interactionFrom(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	assert.False(t, ok)
}
