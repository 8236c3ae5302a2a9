package gateway

// Simple Timer Synchronization - No complex clock sync needed
//
// Strategy: Send timer anchor to client, let client count down
// - RaceStarted event includes started_at
// - State sync includes remaining_sec / elapsed_sec
// - Server tick loop is authoritative for signals and the start instant
// - Client timer is just visual feedback

// Timer approach:
// 1. Server sends: {"type": "TimerTick", "data": {"remaining_sec": 60}}
// 2. Client counts down: 60, 59, 58, 57... 0
// 3. Server fires the actual sound signals and flips to racing
// 4. On reconnect: GET /api/races/{id}/state re-anchors the client timer

// No complex clock synchronization needed - keep it simple!
