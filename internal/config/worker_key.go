package config

type WorkerKeyStruct struct {
	AttemptStatsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AttemptStatsQueue: "queue:attempt_stats",
}
