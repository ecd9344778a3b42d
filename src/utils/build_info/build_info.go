package build_info

// Set with -ldflags "-X github.com/warp-contracts/cashback-scanner/src/utils/build_info.Version=..."
var (
	Version   = "dev"
	BuildDate = "unknown"
)
