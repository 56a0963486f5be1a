package games

// Companion app for in-person games of Feed the Kraken
// Players join a room from their phones; the app deals hidden loyalty cards and runs the cult minigames
// The physical board game handles voyages and voting; the app only manages secrets

// How to play
// - One player creates a room and shares the code (or the QR) with the table
// - Everyone joins, sets a name and optionally a photo, and the host starts the game
// - Roles are dealt in secret: sailors, pirates, one cult leader, and from 9 players a starting cultist
// - Cult minigames (conversion, cabin search, guns stash) need everyone's phone at once,
//   so only one can run at a time
// - Quizzes are cover traffic: while the cult leader acts, everyone else answers a timed
//   trivia question so nobody can tell who is doing what

// Implementation details:
// - One websocket per player per room; full lobby snapshot broadcast after every action
// - Secrets (role reveals, prompts) are sent only to the players entitled to them
// - Disconnects must not stall a round: quorum counts only online, living players,
//   and every timed round has a deadline with random fallback answers
// - RESET_GAME replays the same deal for aborted games; BACK_TO_LOBBY discards it
