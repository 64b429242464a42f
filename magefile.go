//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default 默认任务：显示帮助信息
func Default() {
	fmt.Println("StockAPI 构建系统")
	fmt.Println("================")
	fmt.Println("可用任务:")
	fmt.Println("  mage build       - 构建 api_server")
	fmt.Println("  mage run         - 以本地配置启动 api_server")
	fmt.Println("  mage test        - 运行所有测试")
	fmt.Println("  mage testUnit    - 运行单元测试")
	fmt.Println("  mage testIntegration - 运行集成测试")
	fmt.Println("  mage generate    - 重新生成 gomock 桩代码")
	fmt.Println("  mage docker:env  - 启动基础环境 (Redis + InfluxDB)")
	fmt.Println("  mage docker:down - 停止所有服务")
	fmt.Println("  mage clean       - 清理构建产物和本地缓存")
	fmt.Println("  mage lint        - 运行代码检查")
	fmt.Println("  mage coverage    - 生成测试覆盖率报告")
}

// Build 构建 api_server
func Build() error {
	mg.Deps(Clean)

	targets := []struct {
		name string
		path string
	}{
		{"api_server", "./cmd/api_server"},
	}

	fmt.Println("🚀 开始构建 StockAPI...")

	for _, target := range targets {
		fmt.Printf("📦 构建 %s...\n", target.name)
		output := filepath.Join("./dist", target.name)
		if runtime.GOOS == "windows" {
			output += ".exe"
		}

		cmd := exec.Command("go", "build", "-o", output, target.path)
		cmd.Env = os.Environ()
		cmd.Env = append(cmd.Env, "CGO_ENABLED=0")

		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("构建 %s 失败: %v\n输出: %s", target.name, err, string(output))
		}

		if info, err := os.Stat(output); err == nil {
			fmt.Printf("   ✅ %s: %d MB\n", target.name, info.Size()/1024/1024)
		}
	}

	fmt.Println("🎉 构建完成!")
	return nil
}

// Run 启动 api_server，数据缺失时使用随机占位数据方便前端联调
func Run() error {
	args := []string{"run", "./cmd/api_server", "--log-format=text", "--placeholder=random"}
	if _, err := os.Stat("./config/api_server.yaml"); err == nil {
		args = append(args, "--config=./config/api_server.yaml")
	}
	return sh.RunV("go", args...)
}

// Generate 重新生成 gomock 桩代码
func Generate() error {
	fmt.Println("🔧 生成 mock...")
	return sh.RunV("go", "generate", "./pkg/provider/...")
}

// Test 运行所有测试
func Test() error {
	mg.Deps(TestUnit, TestIntegration)
	return nil
}

// TestUnit 运行单元测试
func TestUnit() error {
	fmt.Println("🧪 运行单元测试...")

	cmd := exec.Command("go", "test", "./pkg/...", "-v", "-short", "-timeout=5m")
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "[no test files]") &&
			!strings.Contains(string(output), "FAIL") &&
			!strings.Contains(string(output), "build failed") {
			fmt.Println("✅ 单元测试通过! (部分包没有测试文件)")
			return nil
		}
		fmt.Printf("单元测试失败输出:\n%s\n", string(output))
		return fmt.Errorf("单元测试失败: %v", err)
	}

	fmt.Println("✅ 单元测试通过!")
	return nil
}

// TestIntegration 运行集成测试，需要本地 Redis 和 InfluxDB
func TestIntegration() error {
	fmt.Println("🔗 运行集成测试...")

	if !isRedisRunning() {
		fmt.Println("⚠️  Redis 未运行，集成测试可能需要外部依赖")
	}

	cmd := exec.Command("go", "test", "-v", "-tags=integration", "./pkg/...", "-timeout=10m")
	cmd.Env = os.Environ()

	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("集成测试失败输出:\n%s\n", string(output))
		return fmt.Errorf("集成测试失败: %v", err)
	}

	fmt.Println("✅ 集成测试通过!")
	return nil
}

type Docker mg.Namespace

// Env 启动基础环境服务 (redis, influxdb)
func (Docker) Env() error {
	fmt.Println("🚀 启动基础环境服务 (redis, influxdb)...")
	return sh.RunV("docker-compose", "-f", "docker-compose.dev.yml", "-p", "stockapi-dev", "up", "-d", "redis", "influxdb")
}

// Down 停止所有开发环境服务
func (Docker) Down() error {
	fmt.Println("🛑 停止所有开发环境服务...")
	return sh.RunV("docker-compose", "-f", "docker-compose.dev.yml", "-p", "stockapi-dev", "down")
}

// Status 查看所有服务的当前状态
func (Docker) Status() error {
	fmt.Println("📊 查看服务状态...")
	return sh.RunV("docker-compose", "-f", "docker-compose.dev.yml", "-p", "stockapi-dev", "ps")
}

// Clean 清理构建产物
func Clean() error {
	fmt.Println("🧹 清理构建产物...")

	// 创建 dist 目录如果不存在
	if err := os.MkdirAll("./dist", 0755); err != nil {
		return fmt.Errorf("创建 dist 目录失败: %v", err)
	}

	// 清理二进制文件
	files, err := filepath.Glob("./dist/*")
	if err != nil {
		return fmt.Errorf("查找文件失败: %v", err)
	}

	for _, file := range files {
		if err := os.Remove(file); err != nil {
			fmt.Printf("警告: 无法删除文件 %s: %v\n", file, err)
		}
	}

	// 清理测试缓存
	if err := sh.Run("go", "clean", "-cache"); err != nil {
		fmt.Printf("警告: 清理缓存失败: %v\n", err)
	}

	// 清理测试数据和本地行情缓存
	for _, path := range []string{"./coverage.out", "./data/cache"} {
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			fmt.Printf("警告: 清理 %s 失败: %v\n", path, err)
		}
	}

	fmt.Println("✅ 清理完成!")
	return nil
}

// Lint 运行代码检查并自动修复
func Lint() error {
	fmt.Println("🔍 运行代码检查...")

	// 首先检查格式问题
	cmd := exec.Command("gofmt", "-d", ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gofmt 检查失败: %v", err)
	}

	if len(output) > 0 {
		fmt.Printf("发现代码格式问题:\n%s\n", string(output))
		fmt.Println("🛠️  正在自动修复格式问题...")

		// 自动修复格式问题
		fixCmd := exec.Command("gofmt", "-w", ".")
		if fixOutput, fixErr := fixCmd.CombinedOutput(); fixErr != nil {
			return fmt.Errorf("自动修复失败: %v\n输出: %s", fixErr, string(fixOutput))
		}

		fmt.Println("✅ 代码格式已自动修复!")

		// 再次检查确认修复成功
		cmd = exec.Command("gofmt", "-d", ".")
		output, err = cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("修复后检查失败: %v", err)
		}

		if len(output) > 0 {
			fmt.Printf("⚠️  修复后仍有格式问题:\n%s\n", string(output))
			return fmt.Errorf("代码格式修复不完整")
		}
	}

	fmt.Println("✅ 代码格式检查通过!")
	return nil
}

// Coverage 生成测试覆盖率报告
func Coverage() error {
	fmt.Println("📈 生成测试覆盖率报告...")

	// 确保报告目录存在
	if err := os.MkdirAll("./reports", 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %v", err)
	}

	cmd := exec.Command("go", "test", "./pkg/...", "-coverprofile=./reports/coverage.out", "-covermode=atomic")
	if output, err := cmd.CombinedOutput(); err != nil {
		fmt.Printf("测试输出:\n%s\n", string(output))
		return fmt.Errorf("生成覆盖率失败: %v", err)
	}

	// 生成HTML报告
	if err := sh.Run("go", "tool", "cover", "-html=./reports/coverage.out", "-o", "./reports/coverage.html"); err != nil {
		return fmt.Errorf("生成HTML报告失败: %v", err)
	}

	// 显示覆盖率摘要
	if err := sh.Run("go", "tool", "cover", "-func=./reports/coverage.out"); err != nil {
		return fmt.Errorf("显示覆盖率失败: %v", err)
	}

	fmt.Println("✅ 覆盖率报告生成完成!")
	fmt.Println("   详细报告: file://" + getAbsolutePath("./reports/coverage.html"))
	return nil
}

// 辅助函数
func isRedisRunning() bool {
	// 给Redis更多时间启动
	time.Sleep(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 使用docker exec在容器内执行命令，避免本地redis-cli依赖
	cmd := exec.CommandContext(ctx, "docker", "exec", "stockapi-redis-dev", "redis-cli", "ping")
	return cmd.Run() == nil
}

func getAbsolutePath(relativePath string) string {
	absPath, err := filepath.Abs(relativePath)
	if err != nil {
		return relativePath
	}
	return absPath
}

// 初始化函数
func init() {
	// 确保必要的目录存在
	os.MkdirAll("./dist", 0755)
	os.MkdirAll("./reports", 0755)
	os.MkdirAll("./config", 0755)
}
