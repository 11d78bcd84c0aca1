package slot

// Reporter 旋转过程观察者（日志、推送等输出不进入核心逻辑）
type Reporter interface {
	// ReelsStopped 卷轴停止后通知起始位置
	ReelsStopped(startPositions []int)
	// SpinCompleted 一次旋转计算完成
	SpinCompleted(result *SpinResult)
}

// NopReporter 不做任何输出
type NopReporter struct{}

func (NopReporter) ReelsStopped([]int)        {}
func (NopReporter) SpinCompleted(*SpinResult) {}

// MultiReporter 依次通知多个观察者
type MultiReporter []Reporter

// ReelsStopped 通知全部观察者
func (m MultiReporter) ReelsStopped(startPositions []int) {
	for _, r := range m {
		r.ReelsStopped(startPositions)
	}
}

// SpinCompleted 通知全部观察者
func (m MultiReporter) SpinCompleted(result *SpinResult) {
	for _, r := range m {
		r.SpinCompleted(result)
	}
}
