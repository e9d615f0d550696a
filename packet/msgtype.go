package packet

// Message type numbers from RFC 4253 and the extensions the state
// filter and default handler table need to know about. Values follow
// the teacher source's default_packet_handlers table layout (packet.c):
// slots 1-100, everything else unassigned.
const (
	MsgDisconnect   = 1
	MsgIgnore       = 2
	MsgUnimplemented = 3
	MsgDebug        = 4

	MsgServiceRequest = 5
	MsgServiceAccept  = 6
	MsgExtInfo        = 7

	MsgKexInit = 20
	MsgNewKeys = 21

	MsgKexDHInit  = 30
	MsgKexDHReply = 31

	MsgKexDHGexInit    = 32
	MsgKexDHGexReply   = 33
	MsgKexDHGexRequest = 34

	MsgUserauthRequest = 50
	MsgUserauthFailure = 51
	MsgUserauthSuccess = 52
	MsgUserauthBanner  = 53

	MsgUserauthPKOK         = 60
	MsgUserauthInfoResponse = 61

	MsgUserauthGSSAPIExchangeComplete = 63
	MsgUserauthGSSAPIError            = 64
	MsgUserauthGSSAPIErrtok           = 65
	MsgUserauthGSSAPIMic              = 66

	MsgGlobalRequest  = 80
	MsgRequestSuccess = 81
	MsgRequestFailure = 82

	MsgChannelOpen             = 90
	MsgChannelOpenConfirmation = 91
	MsgChannelOpenFailure      = 92
	MsgChannelWindowAdjust     = 93
	MsgChannelData             = 94
	MsgChannelExtendedData     = 95
	MsgChannelEOF              = 96
	MsgChannelClose            = 97
	MsgChannelRequest          = 98
	MsgChannelSuccess          = 99
	MsgChannelFailure          = 100

	// maxDefaultHandlerType bounds the built-in handler table, matching
	// sizeof(default_packet_handlers)/sizeof(ssh_packet_callback) == 100.
	maxDefaultHandlerType = 100
)
