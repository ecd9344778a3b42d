package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Scanner        *ScannerReport        `json:"scanner,omitempty"`
	Settlement     *SettlementReport     `json:"settlement,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
}
