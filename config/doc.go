// Package config 提供 SwarmFlow 的统一配置：
// 默认值 → YAML 文件 → 环境变量三级覆盖，外加按组件切分的取用方法。
package config
