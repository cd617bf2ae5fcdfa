package notify

import "context"

// Notice 是发送给公司所有者的投递通知内容。
type Notice struct {
	JobTitle      string // 被投递的职位标题
	CandidateName string // 候选人姓名
	Note          string // 候选人附言（可为空）
}

// Notifier 定义通知接口。
type Notifier interface {
	// SendApplicationReceived 通知公司所有者收到一条新投递。
	//
	// 发送失败只记录，不影响投递本身的结果。
	SendApplicationReceived(ctx context.Context, notice Notice, toEmail string) error
}
