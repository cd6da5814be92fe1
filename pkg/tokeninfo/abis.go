package tokeninfo

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20AbiJSON = `[
	{"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc721AbiJSON = `[
	{"name":"isApprovedForAll","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"supportsInterface","type":"function","stateMutability":"view","inputs":[{"name":"interfaceId","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}]}
]`

const erc1155AbiJSON = `[
	{"name":"supportsInterface","type":"function","stateMutability":"view","inputs":[{"name":"interfaceId","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const ownerAbiJSON = `[
	{"name":"owner","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"name":"hasRole","type":"function","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

var (
	erc20Abi   = mustParseAbi(erc20AbiJSON)
	erc721Abi  = mustParseAbi(erc721AbiJSON)
	erc1155Abi = mustParseAbi(erc1155AbiJSON)
	ownerAbi   = mustParseAbi(ownerAbiJSON)
)

var (
	// ERC721TokenReceiver interface id. Only the success of the probe call matters, not its answer.
	erc721ProbeInterfaceID = [4]byte{0x15, 0x0b, 0x7a, 0x02}
	erc1155InterfaceID     = [4]byte{0xd9, 0xb6, 0x7a, 0x26}
	// DEFAULT_ADMIN_ROLE of OpenZeppelin AccessControl.
	defaultAdminRole = [32]byte{}
)

func mustParseAbi(def string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return &parsed
}
