// This file is maintained by hand. Add / remove / update entries as appropriate.
package chains

func MainnetChains() []Descriptor {
	return []Descriptor{
		{
			Name: "BTC", ChainID: 2147483648, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 2147483648, Symbol: "BTC"},
		},
		{
			Name: "ETH", ChainID: 2147483708, WalletID: "1",
			Admin:             "0xdb9116928d4b5b347b588de2939724cb4e6f4ac1",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xb1855eca716835b5f77a6ff031733d23825d9af8",
			Native:            NativeCoin{ChainID: 2147483708, Symbol: "ETH"},
		},
		{
			Name: "XRP", ChainID: 2147483792, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 2147483792, Symbol: "XRP"},
		},
		{
			Name: "TRX", ChainID: 2147483843, WalletID: Disabled, Nonce: Disabled,
			Admin:                "TSPZrrNDpg8vgia6M6WQcdKCSJbqqZGdtT",
			FeeLimit:             1000000000,
			RefBlock:             true,
			TokenManagerProxy:    "TG9wWxUjbU57aJVzb6Hw2ey26rtg7Teoj9",
			TokenManagerProxyEvm: "0x43d8678ae5af88b1ae2d4946385ec28205802eb0",
			Native:               NativeCoin{ChainID: 2147483843, Symbol: "TRX"},
		},
		{
			Name: "MATIC", ChainID: 2147484614, WalletID: "137",
			Admin:             "0x67cc3f71d32e1b7064a8be65c3c9285dab42ff30",
			GasPrice:          30000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0x097f9ddfb1b52ff6f27ffbfc70bdfa9df881f7c1",
			Native:            NativeCoin{ChainID: 2147484614, Symbol: "MATIC"},
		},
		{
			Name: "AVAX", ChainID: 2147492648, WalletID: "43114",
			Admin:             "0x5476a99c16affc76bf0cbf94edeadad04394dd9c",
			GasPrice:          25000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xc29f26996292e99bfe614d803b035d2c64f04e26",
			Native:            NativeCoin{ChainID: 2147492648, Symbol: "AVAX"},
		},
		{
			Name: "BSC", ChainID: 1073741826, WalletID: "56",
			Admin:             "0xca0a5f86d1ccbb018c24c9506c3e47a3bc8eee77",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xe3f6916d464ca7edec43b06c8a5b8ddb9ead1dd3",
			Native:            NativeCoin{ChainID: 1073741826, Symbol: "BNB"},
		},
		{
			Name: "WAN", ChainID: 2153201998, WalletID: "888",
			Admin:             "0x78248719a9df37d31cef7f31e737c0bd5829a266",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0x070511a77ce1bce5cdd7653b858166e49ca9bdf1",
			Native:            NativeCoin{ChainID: 2153201998, Symbol: "WAN"},
		},
	}
}
