// This file is maintained by hand. Add / remove / update entries as appropriate.
package chains

func TestnetChains() []Descriptor {
	return []Descriptor{
		{
			Name: "BTC", ChainID: 2147483648, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 2147483648, Symbol: "BTC"},
		},
		{
			Name: "ETH", ChainID: 2147483708, WalletID: "11155111",
			Admin:             "0x636d3d220fc3cd35d644f1b65d009ffe5eb371cc",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0x793f3dc0133e9620c2f2536716de1cfa7fffa27f",
			Native:            NativeCoin{ChainID: 2147483708, Symbol: "ETH"},
		},
		{
			Name: "XRP", ChainID: 2147483792, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 2147483792, Symbol: "XRP"},
		},
		{
			Name: "TRX", ChainID: 2147483843, WalletID: Disabled, Nonce: Disabled,
			Admin:                "TLTwsawYJedBqFKJL78aa8AnSUQi5RiYte",
			FeeLimit:             1000000000,
			RefBlock:             true,
			TokenManagerProxy:    "TUiWbmEVuBpZYLDDrHp63Yxr3mpqfPn8PW",
			TokenManagerProxyEvm: "0xcda2d740a0866d303cb07f56e45e93f40dd7b869",
			Native:               NativeCoin{ChainID: 2147483843, Symbol: "TRX"},
		},
		{
			Name: "BSC", ChainID: 1073741826, WalletID: "97",
			Admin:             "0xec58e6de6d1c983004112effb57e4068eaf69eac",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xa44d29d78c530bb7659f1c251164f275b2e86e9c",
			Native:            NativeCoin{ChainID: 1073741826, Symbol: "BNB"},
		},
		{
			Name: "WAN", ChainID: 2153201998, WalletID: "999",
			Admin:             "0x636d3d220fc3cd35d644f1b65d009ffe5eb371cc",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0x7320b11a31771d9f0845bccfb3ac3dbadae26c15",
			Native:            NativeCoin{ChainID: 2153201998, Symbol: "WAN"},
		},
	}
}
