package model

import "time"

// User 表示系统用户。
//
// 它是身份锚点：一个用户最多拥有一个公司、一份候选人资料，以及多条投递记录。
// 这些关联只通过外键 id 表达，不做双向对象引用，导航一律走查询。
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                       // 用户 ID
	Email        string    `gorm:"type:varchar(191);uniqueIndex" json:"email"` // 邮箱（唯一，存储前统一小写）
	PasswordHash string    `gorm:"not null" json:"-"`                          // bcrypt 哈希
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`              // 管理员标记
	CreatedAt    time.Time `json:"created_at"`                                 // 创建时间
}
