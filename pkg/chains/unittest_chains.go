package chains

// UnitTestChains is a small deterministic table used by the unit-test environment.
func UnitTestChains() []Descriptor {
	return []Descriptor{
		{
			Name: "ETH", ChainID: 60000000, WalletID: "1",
			Admin:             "0x1111111111111111111111111111111111111111",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
			Native:            NativeCoin{ChainID: 60000000, Symbol: "ETH"},
		},
		{
			Name: "WAN", ChainID: 60000001, WalletID: "888",
			Admin:             "0x2222222222222222222222222222222222222222",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xdddddddddddddddddddddddddddddddddddddddd",
			Native:            NativeCoin{ChainID: 60000001, Symbol: "WAN"},
		},
		{
			Name: "BSC", ChainID: 60000002, WalletID: "56",
			Admin:             "0x3333333333333333333333333333333333333333",
			GasPrice:          1000000000,
			GasLimit:          300000,
			TokenManagerProxy: "0xcccccccccccccccccccccccccccccccccccccccc",
			Native:            NativeCoin{ChainID: 60000002, Symbol: "BNB"},
		},
		{
			Name: "TRX", ChainID: 60000003, WalletID: Disabled, Nonce: Disabled,
			Admin:                "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			FeeLimit:             1000000000,
			RefBlock:             true,
			TokenManagerProxy:    "TYP2SHp9886nu17bBNa8pbj7bFXpJhSvUT",
			TokenManagerProxyEvm: "0xf5d3ee5eb3c2f0b4c9d7e98e8e5f1e0b9c8a7d6e",
			Native:               NativeCoin{ChainID: 60000003, Symbol: "TRX"},
		},
		{
			Name: "XRP", ChainID: 60000004, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 60000004, Symbol: "XRP"},
		},
		{
			Name: "BTC", ChainID: 60000005, WalletID: Disabled, Admin: Disabled, Nonce: Disabled,
			TokenManagerProxy: Disabled,
			Native:            NativeCoin{ChainID: 60000005, Symbol: "BTC"},
		},
	}
}
