package wire

// tokenDictionary lists the protocol strings frequent enough to earn a
// single-byte encoding. Index 0 is reserved so a token index on the wire
// is never zero; the table must never exceed 255 usable entries.
var tokenDictionary = []string{
	"", // reserved
	"admin",
	"init",
	"login",
	"challenge",
	"response",
	"action",
	"query",
	"iq",
	"message",
	"presence",
	"chat",
	"notification",
	"receipt",
	"ack",
	"sync",
	"type",
	"get",
	"set",
	"result",
	"error",
	"id",
	"index",
	"class",
	"user",
	"from",
	"to",
	"participant",
	"author",
	"count",
	"status",
	"available",
	"unavailable",
	"composing",
	"paused",
	"body",
	"read",
	"played",
	"delivery",
	"contacts",
	"group",
	"subject",
	"create",
	"add",
	"remove",
	"leave",
	"promote",
	"demote",
	"media",
	"image",
	"video",
	"audio",
	"document",
	"sticker",
	"url",
	"mimetype",
	"duration",
	"caption",
	"filehash",
	"encoding",
	"name",
	"short",
	"true",
	"false",
	"battery",
	"platform",
	"version",
	"browser",
	"timestamp",
	"last",
	"seconds",
	"retry",
	"web",
	"relay",
	"broadcast",
	"archive",
	"pin",
	"mute",
	"star",
	"delete",
	"clear",
	"modify",
	"block",
	"profile",
	"picture",
	"preview",
	"description",
	"invite",
	"code",
	"revoke",
	"kind",
	"priority",
	"state",
	"recording",
	"recipient",
	"ephemeral",
	"expiration",
}

// tokenIndex maps a dictionary string back to its index.
var tokenIndex = func() map[string]byte {
	m := make(map[string]byte, len(tokenDictionary))
	for i := 1; i < len(tokenDictionary); i++ {
		m[tokenDictionary[i]] = byte(i)
	}
	return m
}()

// lookupToken returns the dictionary index for s, if s is a known token.
func lookupToken(s string) (byte, bool) {
	idx, ok := tokenIndex[s]
	return idx, ok
}

// tokenString returns the dictionary string at idx.
func tokenString(idx byte) (string, bool) {
	if int(idx) >= len(tokenDictionary) || idx == 0 {
		return "", false
	}
	return tokenDictionary[idx], true
}
