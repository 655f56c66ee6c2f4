package store

const (
	KeyPlayer             = "player:%s"
	KeyPlayerBalance      = "player:%s:balance"
	KeyPlayerByDisplay    = "player:display:%s"
	KeyPlayerByFP         = "player:fp:%s"
	KeyPlayerByAddrIndex  = "player:addr:%d"
	KeyRound              = "game:%s"
	KeyRoundSpots         = "game:%s:spots"
	KeyLaneRound          = "lane:%d:game"
	KeyTransaction        = "tx:%s"
	KeyTransactionCredit  = "tx:%s:credited"
	KeyWithdraw           = "withdraw:%s"
	KeyWithdrawStatus     = "withdraw:%s:status"
	KeyWithdrawsInitiated = "withdraws:initiated"
	KeyRateLimit          = "ratelimit:%s"
)
