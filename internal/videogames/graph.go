package videogames

import (
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/dsl"
)

const (
	affirm  = `{yes, yeah, yep, yup, sure, "of course", definitely, absolutely, "i do", ok, okay}`
	deny    = `{no, nope, "not really", never, "i don't", "no thanks"}`
	nothing = `{nothing, none, "don't play", "do not play", "i don't"}`
)

// device states, in the order ANS1 tries them. Specific consoles come before
// the brand that lists them as hyponyms.
var devices = []struct {
	state   State
	pattern string
	say     string
}{
	{Atari, `$device={#ONT(atari), atari}`, "Atari, a classic! #GAME_COUNT #SYSTEM_FAV"},
	{DS, `$device={#ONT(ds), ds}`, "The DS is a great handheld. #GAME_COUNT #SYSTEM_FAV"},
	{GameBoy, `$device=#ONT(gameboy)`, "The Game Boy never gets old. #GAME_COUNT #SYSTEM_FAV"},
	{Genesis, `$device=#ONT(genesis)`, "Blast processing! #GAME_COUNT #SYSTEM_FAV"},
	{PlayStation, `$device=#ONT(playstation)`, "PlayStation, nice! #GAME_COUNT #SYSTEM_FAV"},
	{Xbox, `$device=#ONT(xbox)`, "Xbox, nice! #GAME_COUNT #SYSTEM_FAV"},
	{Nintendo, `$device=#ONT(nintendo)`, "Nintendo makes some of my favorite games. #GAME_COUNT #SYSTEM_FAV"},
	{PC, `$device=#ONT(pc)`, "PC gaming, the master race. #BEST_SELLER(pc)"},
	{Sega, `$device=#ONT(sega)`, "Sega does what Nintendon't. #GAME_COUNT #SYSTEM_FAV"},
}

// Graph returns the video game conversation.
//
// The user is asked whether they play, which device they play on and their
// favorite game. The system answers with facts from the dataset and keeps
// recommending games until the user is done.
func Graph() *domain.Graph {
	b := dsl.New(Start.ID())

	b.State(Start.ID()).Say("Hi, do you play video games?", InitPrompt.ID())

	b.State(InitPrompt.ID()).
		Listen("[!not, "+affirm+"]", Ques1.ID()).
		Listen(deny, NoGames.ID()).
		Error(Err.ID())

	b.State(Err.ID()).Say("Sorry, I didn't get that. Do you play video games?", InitPrompt.ID())

	b.State(NoGames.ID()).Say("That's okay! #BRANDS Maybe one day you will give one a try.", Goodbye.ID())

	b.State(Ques1.ID()).Say("What do you most often play video games on?", Ans1.ID())

	ans := b.State(Ans1.ID())
	for _, d := range devices {
		ans.Listen(d.pattern, d.state.ID())
	}
	ans.Listen(nothing, NoGames.ID()).Error(DeviceErr.ID())

	b.State(DeviceErr.ID()).Say("Hmm, I don't know that one. #BRANDS Which one do you play on?", Ans1.ID())

	for _, d := range devices {
		b.State(d.state.ID()).Say(d.say, Ques2.ID())
	}

	b.State(Ques2.ID()).Say("What is your favorite game?", FavAns.ID())

	b.State(FavAns.ID()).
		Listen(`{nothing, none, "no favorite", "not sure", "don't know", "don't have"}`, NoFav.ID()).
		Listen(`[{"favorite is", "favorite game is", "it's", "i like", "i love", "probably"}, $fav_game=*]`, FavAck.ID()).
		Listen(`$fav_game=*`, FavAck.ID())

	b.State(NoFav.ID()).Say("No worries. #RECOMMEND Want another recommendation?", RecFeedback.ID())
	b.State(FavAck.ID()).Say("#GAME_GENRE #GAME_SALES #RECOMMEND_GENRE Want another recommendation?", RecFeedback.ID())

	b.State(RecFeedback.ID()).
		Listen(`{facts, "tell me more", more, stats}`, Facts.ID()).
		Listen(`[!not, {yes, yeah, yep, sure, another, "one more", ok, okay, please}]`, Another.ID()).
		Listen(`{no, nope, nah, "i'm good", "that's all", bye, done}`, Goodbye.ID()).
		Error(RecErr.ID())

	b.State(Another.ID()).Say("#RECOMMEND Want another recommendation?", RecFeedback.ID())
	b.State(Facts.ID()).Say("#CONSOLE_SALES #YEAR_RANGE Want another recommendation?", RecFeedback.ID())
	b.State(RecErr.ID()).Say("Sorry, was that a yes or a no? You can also ask for facts.", RecFeedback.ID())

	b.State(Restart.ID()).Say("Let's try something else.", Ques1.ID())

	b.State(Goodbye.ID()).Say("Thanks for chatting about video games. Goodbye!", End.ID())
	b.State(End.ID())

	return b.MustBuild()
}
